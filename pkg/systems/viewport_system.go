package systems

import (
	"log"
	"math"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/utils"
)

// zoomStepFactor 每次键盘/滚轮缩放的倍率
const zoomStepFactor = 1.1

// ViewportSystem 视口与缩放控制器
//
// 负责把连续的缩放系数换算成当前视口可见的纵向格数，并执行可选的
// 用户缩放边界。缩放没有离散状态机——它是一个连续值，每次变更时
// 套用一次钳制函数；上下界是两个独立的可选标志，四种组合都合法。
//
// 变更通知采用订阅回调推送，界面无需按固定间隔轮询。
type ViewportSystem struct {
	viewportWidth  int // 视口宽度（像素）
	viewportHeight int // 视口高度（像素）

	tilesHorizontal int // 世界横向格数
	tilesVertical   int // 世界纵向格数

	// state 当前缩放状态，所有变更操作只改这一份
	state components.ZoomState

	// 摄像机左上角的世界像素坐标
	cameraX float64
	cameraY float64

	subscribers map[int]func(components.ZoomInfo)
	nextSubID   int
}

// NewViewportSystem 创建视口系统
//
// 初始缩放取默认缩放（使纵向可见格数等于配置的默认值），再套用边界钳制。
// 设置通过参数显式注入，系统不访问任何全局状态。
func NewViewportSystem(viewportWidth, viewportHeight int, settings *game.AquariumSettings) *ViewportSystem {
	vs := &ViewportSystem{
		viewportWidth:   viewportWidth,
		viewportHeight:  viewportHeight,
		tilesHorizontal: settings.TilesHorizontal,
		tilesVertical:   settings.TilesVertical,
		state: components.ZoomState{
			MinZoom:                     settings.MinZoom,
			MaxZoom:                     settings.MaxZoom,
			DefaultVisibleVerticalTiles: settings.DefaultVisibleVerticalTiles,
		},
		subscribers: make(map[int]func(components.ZoomInfo)),
	}
	vs.state.CurrentZoom = vs.clampZoom(vs.defaultZoomLevel())
	vs.clampCamera()
	return vs
}

// ZoomState 返回当前缩放状态的副本
func (vs *ViewportSystem) ZoomState() components.ZoomState {
	return vs.state
}

// ZoomInfo 返回当前缩放状态快照
// 纯读取，无副作用，可高频调用
func (vs *ViewportSystem) ZoomInfo() components.ZoomInfo {
	return components.ZoomInfo{
		CurrentZoom:                 vs.state.CurrentZoom,
		ZoomPercentage:              int(math.Round(vs.state.CurrentZoom * 100)),
		VisibleVerticalTiles:        vs.visibleVerticalTiles(),
		DefaultVisibleVerticalTiles: vs.state.DefaultVisibleVerticalTiles,
		MinZoom:                     vs.state.MinZoom,
		MaxZoom:                     vs.state.MaxZoom,
	}
}

// visibleVerticalTiles 由视口像素高、格大小与缩放推导纵向可见格数
// 缩放越大每格占用的屏幕像素越多，可见格数越少
func (vs *ViewportSystem) visibleVerticalTiles() int {
	if vs.state.CurrentZoom <= 0 {
		return 0
	}
	return int(math.Round(float64(vs.viewportHeight) / (utils.TileSize * vs.state.CurrentZoom)))
}

// defaultZoomLevel 使纵向可见格数等于配置默认值所需的缩放系数
func (vs *ViewportSystem) defaultZoomLevel() float64 {
	if vs.state.DefaultVisibleVerticalTiles <= 0 {
		return 1.0
	}
	return float64(vs.viewportHeight) / (utils.TileSize * float64(vs.state.DefaultVisibleVerticalTiles))
}

// clampZoom 将缩放值钳入当前生效的边界，无边界方向不受限
// 钳制是静默的：不报错，只封顶
func (vs *ViewportSystem) clampZoom(z float64) float64 {
	if vs.state.MinZoom != nil && z < *vs.state.MinZoom {
		z = *vs.state.MinZoom
	}
	if vs.state.MaxZoom != nil && z > *vs.state.MaxZoom {
		z = *vs.state.MaxZoom
	}
	if z < 0 {
		z = 0
	}
	return z
}

// CurrentZoomLevel 返回当前缩放系数
func (vs *ViewportSystem) CurrentZoomLevel() float64 {
	return vs.state.CurrentZoom
}

// SetZoom 设置缩放系数，自动钳入边界并通知订阅者
func (vs *ViewportSystem) SetZoom(z float64) {
	clamped := vs.clampZoom(z)
	if clamped == vs.state.CurrentZoom {
		return
	}
	vs.state.CurrentZoom = clamped
	vs.clampCamera()
	vs.notify()
}

// ZoomIn 放大一档
func (vs *ViewportSystem) ZoomIn() {
	vs.SetZoom(vs.state.CurrentZoom * zoomStepFactor)
}

// ZoomOut 缩小一档
func (vs *ViewportSystem) ZoomOut() {
	vs.SetZoom(vs.state.CurrentZoom / zoomStepFactor)
}

// SetDefaultZoom 重置缩放，使纵向可见格数等于配置的默认值
// 这是唯一读取 DefaultVisibleVerticalTiles 配置的变更操作
func (vs *ViewportSystem) SetDefaultZoom() {
	vs.SetZoom(vs.defaultZoomLevel())
}

// SetDefaultVisibleVerticalTiles 更新默认纵向可见格数配置
// 仅更新配置，不改变当前缩放；下次 SetDefaultZoom 时生效
func (vs *ViewportSystem) SetDefaultVisibleVerticalTiles(tiles int) {
	if tiles <= 0 {
		return
	}
	vs.state.DefaultVisibleVerticalTiles = tiles
	vs.notify()
}

// reclampAfterCapture 捕获新边界后把当前缩放重新钳入边界
// 两位小数的舍入可能使捕获值越过当前缩放，此时当前缩放就地贴到新边界
func (vs *ViewportSystem) reclampAfterCapture() {
	if clamped := vs.clampZoom(vs.state.CurrentZoom); clamped != vs.state.CurrentZoom {
		vs.state.CurrentZoom = clamped
		vs.clampCamera()
	}
}

// CaptureCurrentAsMin 把当前缩放（保留两位小数）记为下界
//
// 捕获值若高于已有上界会使边界倒置，此时拒绝捕获并返回 false，
// 已有边界保持不变。
func (vs *ViewportSystem) CaptureCurrentAsMin() bool {
	captured := math.Round(vs.state.CurrentZoom*100) / 100
	if vs.state.MaxZoom != nil && captured > *vs.state.MaxZoom {
		log.Printf("[Viewport] Rejected min capture %.2f: above max %.2f", captured, *vs.state.MaxZoom)
		return false
	}
	vs.state.MinZoom = &captured
	vs.reclampAfterCapture()
	vs.notify()
	return true
}

// CaptureCurrentAsMax 把当前缩放（保留两位小数）记为上界
// 捕获值低于已有下界时拒绝并返回 false
func (vs *ViewportSystem) CaptureCurrentAsMax() bool {
	captured := math.Round(vs.state.CurrentZoom*100) / 100
	if vs.state.MinZoom != nil && captured < *vs.state.MinZoom {
		log.Printf("[Viewport] Rejected max capture %.2f: below min %.2f", captured, *vs.state.MinZoom)
		return false
	}
	vs.state.MaxZoom = &captured
	vs.reclampAfterCapture()
	vs.notify()
	return true
}

// ClearZoomBoundaries 无条件清除上下界
// 清除只移除钳制，不改变当前缩放
func (vs *ViewportSystem) ClearZoomBoundaries() {
	vs.state.MinZoom = nil
	vs.state.MaxZoom = nil
	vs.notify()
}

// ZoomBoundaries 返回当前缩放边界（nil 表示对应方向不限制）
func (vs *ViewportSystem) ZoomBoundaries() (minZoom, maxZoom *float64) {
	return vs.state.MinZoom, vs.state.MaxZoom
}

// Subscribe 订阅缩放状态变更，返回退订函数
// 每次生效的变更（缩放、边界、默认值）推送一次最新快照
func (vs *ViewportSystem) Subscribe(fn func(components.ZoomInfo)) func() {
	id := vs.nextSubID
	vs.nextSubID++
	vs.subscribers[id] = fn
	return func() {
		delete(vs.subscribers, id)
	}
}

// notify 向所有订阅者推送当前快照
func (vs *ViewportSystem) notify() {
	info := vs.ZoomInfo()
	for _, fn := range vs.subscribers {
		fn(info)
	}
}

// Camera 返回摄像机左上角的世界像素坐标
func (vs *ViewportSystem) Camera() (x, y float64) {
	return vs.cameraX, vs.cameraY
}

// Pan 平移摄像机（世界像素），自动钳入世界边界
func (vs *ViewportSystem) Pan(dx, dy float64) {
	vs.cameraX += dx
	vs.cameraY += dy
	vs.clampCamera()
}

// clampCamera 把摄像机钳在世界范围内，世界小于视口时贴左上角
func (vs *ViewportSystem) clampCamera() {
	worldW, worldH := utils.WorldPixelSize(vs.tilesHorizontal, vs.tilesVertical)

	visW := float64(vs.viewportWidth)
	visH := float64(vs.viewportHeight)
	if vs.state.CurrentZoom > 0 {
		visW /= vs.state.CurrentZoom
		visH /= vs.state.CurrentZoom
	}

	maxX := worldW - visW
	maxY := worldH - visH
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}

	vs.cameraX = math.Max(0, math.Min(vs.cameraX, maxX))
	vs.cameraY = math.Max(0, math.Min(vs.cameraY, maxY))
}

// SetViewportSize 更新视口像素尺寸（窗口尺寸变化时调用）
func (vs *ViewportSystem) SetViewportSize(width, height int) {
	if width == vs.viewportWidth && height == vs.viewportHeight {
		return
	}
	vs.viewportWidth = width
	vs.viewportHeight = height
	vs.clampCamera()
	vs.notify()
}

// ViewportSize 返回视口像素尺寸
func (vs *ViewportSystem) ViewportSize() (width, height int) {
	return vs.viewportWidth, vs.viewportHeight
}
