package components

// Fish 表示水族箱中一条游动的鱼
// 位置与速度使用世界像素坐标，渲染时再换算到屏幕
type Fish struct {
	ID         string  // 唯一标识
	Species    string  // 鱼种名（展示用）
	SpriteURL  string  // 精灵资源引用
	X          float64 // 世界X坐标（像素）
	Y          float64 // 世界Y坐标（像素）
	VX         float64 // 水平速度（像素/秒），负值向左
	VY         float64 // 垂直速度（像素/秒）
	FacingLeft bool    // 朝向，渲染时决定是否水平翻转
}
