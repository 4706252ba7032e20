package components

// ZoomState 视口缩放的当前状态
//
// CurrentZoom 是连续的缩放系数（≥ 0），Min/Max 为可选的用户设定边界，
// nil 表示该方向不限制。四种组合（无边界/仅下界/仅上界/双边界）均合法。
type ZoomState struct {
	CurrentZoom float64  // 当前缩放系数
	MinZoom     *float64 // 缩放下界，nil 表示不限制
	MaxZoom     *float64 // 缩放上界，nil 表示不限制

	// DefaultVisibleVerticalTiles 配置的默认纵向可见格数
	// SetDefaultZoom 根据它反推缩放系数
	DefaultVisibleVerticalTiles int
}

// ZoomInfo 对外暴露的缩放快照，纯数据，可高频读取
type ZoomInfo struct {
	CurrentZoom                 float64
	ZoomPercentage              int // round(CurrentZoom * 100)
	VisibleVerticalTiles        int // 当前视口纵向可见格数
	DefaultVisibleVerticalTiles int
	MinZoom                     *float64
	MaxZoom                     *float64
}
