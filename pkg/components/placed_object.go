package components

// DefaultObjectSize 装饰物默认占地边长（格）
// 持久化记录缺失 size 字段时使用该默认值
const DefaultObjectSize = 6

// DefaultObjectLayer 装饰物默认渲染层级
const DefaultObjectLayer = 0

// PlacedObject 表示锚定在网格上的装饰物
//
// 装饰物以左上角 (GridX, GridY) 为锚点，占据 Size×Size 的正方形格子区域。
// Layer 决定渲染顺序，数值小的画在后面。
//
// 内存中的实例由 ObjectGridSystem 独占管理，UI 不直接修改字段，
// 只通过系统提供的操作（移动、换层、删除）驱动。
type PlacedObject struct {
	ObjectID  string // 稳定唯一标识
	SpriteURL string // 精灵资源引用（不透明字符串）
	GridX     int    // 锚点列（格）
	GridY     int    // 锚点行（格）
	Size      int    // 占地边长（格）
	Layer     int    // 渲染层级，越大越靠前
}

// UpdatePosition 更新装饰物的锚点坐标
// 仅修改内存中的坐标，占用索引与持久化由 ObjectGridSystem 负责同步
func (o *PlacedObject) UpdatePosition(x, y int) {
	o.GridX = x
	o.GridY = y
}

// Direction 一格移动的方向
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionLeft
	DirectionRight
)

// Delta 返回方向对应的格子位移
// 四个基本方向，每次调用固定移动一格，不提供对角组合
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirectionUp:
		return 0, -1
	case DirectionDown:
		return 0, 1
	case DirectionLeft:
		return -1, 0
	case DirectionRight:
		return 1, 0
	}
	return 0, 0
}

// String 返回方向的可读名称，用于错误提示
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	}
	return "unknown"
}
