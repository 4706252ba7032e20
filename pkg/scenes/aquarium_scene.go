// Package scenes 组装各系统为可运行的水族箱场景
//
// AquariumScene 是 UI 组件（设置面板、对象编辑器、数据面板）看到的
// aquarium 句柄：对外暴露对象管理、缩放信息与选择回调，对内把输入
// 事件翻译成网格系统与视口系统的操作。
package scenes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/systems"
	"github.com/gonewx/aquarium/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// 场景常量
const (
	// messageDuration 瞬态提示的展示时长（秒），到期自动消失
	messageDuration = 3.0

	// persistenceOpTimeout 单次持久化调用的放弃时限
	// 持久化失败绝不阻塞 UI，超时后按失败处理
	persistenceOpTimeout = 3 * time.Second

	// statsInterval 统计采样间隔（秒）
	statsInterval = 1.0

	// cameraPanSpeed 键盘平移速度（世界像素/秒）
	cameraPanSpeed = 400.0
)

// AquariumScene 水族箱主场景
type AquariumScene struct {
	settingsManager *game.SettingsManager

	grid     *systems.ObjectGridSystem
	viewport *systems.ViewportSystem
	fish     *systems.FishSystem
	render   *systems.RenderSystem
	stats    *game.StatsRecorder

	// 选择回调：启用后每次点选装饰物时通知 UI
	selectionEnabled  bool
	selectionCallback func(objectID string)

	// 瞬态提示
	message      string
	messageTimer float64

	statsAccum   float64
	nextObjectID int

	// 放置模式下点击空地会放置该精灵的新装饰物
	placementSprite string
}

// NewAquariumScene 创建水族箱场景
//
// 所有依赖显式注入：设置、存储、视口尺寸与随机数种子都来自调用方，
// 场景不访问任何全局单例。
func NewAquariumScene(settingsManager *game.SettingsManager, store game.ObjectStore, viewportWidth, viewportHeight int, rng *rand.Rand) (*AquariumScene, error) {
	settings := settingsManager.GetSettings()

	grid, err := systems.NewObjectGridSystem(context.Background(), store, settings.TilesHorizontal, settings.TilesVertical)
	if err != nil {
		return nil, fmt.Errorf("failed to init object grid: %w", err)
	}

	viewport := systems.NewViewportSystem(viewportWidth, viewportHeight, settings)
	fish := systems.NewFishSystem(settings.FishCount, settings.TilesHorizontal, settings.TilesVertical, rng)

	scene := &AquariumScene{
		settingsManager: settingsManager,
		grid:            grid,
		viewport:        viewport,
		fish:            fish,
		render:          systems.NewRenderSystem(grid, viewport, fish),
		stats:           game.NewStatsRecorder(),
		nextObjectID:    initialObjectID(grid.Objects()),
	}

	// 缩放边界变化时回写设置（最新值生效），保存失败只告警不阻塞
	// 普通缩放操作也会触发通知，边界没变时不落盘
	viewport.Subscribe(func(info components.ZoomInfo) {
		if !settingsManager.SetZoomBoundaries(info.MinZoom, info.MaxZoom) {
			return
		}
		if err := settingsManager.Save(); err != nil {
			log.Printf("[Scene] Warning: failed to save zoom boundaries: %v", err)
		}
	})

	return scene, nil
}

// initialObjectID 从已放置装饰物的数字后缀推出下一个可用序号
//
// 序号必须越过所有存活记录的最大值：按存活数量推算会在删除过对象的
// 存档上撞号，且被占用的 id 永远放置失败。非 obj-N 形式的 id 不参与推算。
func initialObjectID(objects map[string]*components.PlacedObject) int {
	next := 1
	for id := range objects {
		n, err := strconv.Atoi(strings.TrimPrefix(id, "obj-"))
		if err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// ObjectManager 返回装饰物网格系统（对象编辑器的操作入口）
func (s *AquariumScene) ObjectManager() *systems.ObjectGridSystem {
	return s.grid
}

// GetZoomInfo 返回当前缩放快照
func (s *AquariumScene) GetZoomInfo() components.ZoomInfo {
	return s.viewport.ZoomInfo()
}

// SetDefaultZoom 重置到默认缩放
func (s *AquariumScene) SetDefaultZoom() {
	s.viewport.SetDefaultZoom()
}

// CurrentZoomLevel 返回当前缩放系数
func (s *AquariumScene) CurrentZoomLevel() float64 {
	return s.viewport.CurrentZoomLevel()
}

// Viewport 返回视口系统（设置面板订阅缩放变更用）
func (s *AquariumScene) Viewport() *systems.ViewportSystem {
	return s.viewport
}

// Stats 返回统计记录器（数据面板读取用）
func (s *AquariumScene) Stats() *game.StatsRecorder {
	return s.stats
}

// EnableObjectSelection 启用点选并注册回调
func (s *AquariumScene) EnableObjectSelection(callback func(objectID string)) {
	s.selectionEnabled = true
	s.selectionCallback = callback
}

// DisableObjectSelection 停用点选，已有选中保持不变
func (s *AquariumScene) DisableObjectSelection() {
	s.selectionEnabled = false
	s.selectionCallback = nil
}

// ClearObjectSelection 清除当前选中
func (s *AquariumScene) ClearObjectSelection() {
	s.grid.ClearSelection()
}

// SetPlacementSprite 进入放置模式：点击空地放置该精灵的新装饰物
// 传空串退出放置模式
func (s *AquariumScene) SetPlacementSprite(spriteURL string) {
	s.placementSprite = spriteURL
}

// UploadSprite 校验本地精灵文件并进入该精灵的放置模式
//
// 校验在任何使用之前同步完成：类型或大小不合格立即拒绝并给出提示，
// 不会产生半上传状态。
func (s *AquariumScene) UploadSprite(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat sprite file: %w", err)
	}
	if err := utils.ValidateSpriteUpload(path, fi.Size()); err != nil {
		s.showMessage("Invalid sprite file")
		return err
	}
	s.placementSprite = path
	return nil
}

// Message 返回当前瞬态提示，空串表示无提示
func (s *AquariumScene) Message() string {
	return s.message
}

// showMessage 设置瞬态提示，约 3 秒后自动消失
func (s *AquariumScene) showMessage(msg string) {
	s.message = msg
	s.messageTimer = messageDuration
}

// opCtx 返回带时限的持久化操作上下文
func (s *AquariumScene) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), persistenceOpTimeout)
}

// Update 推进一帧：输入、鱼群、统计与提示计时
func (s *AquariumScene) Update(dt float64) error {
	s.handleZoomInput()
	s.handlePanInput(dt)
	s.handleObjectInput()
	s.handleMouseInput()

	s.fish.Update(dt)

	// 每秒采样一次 FPS 与鱼数量
	s.statsAccum += dt
	if s.statsAccum >= statsInterval {
		s.statsAccum -= statsInterval
		s.stats.Record(time.Now(), ebiten.ActualFPS(), s.fish.Count())
	}

	if s.messageTimer > 0 {
		s.messageTimer -= dt
		if s.messageTimer <= 0 {
			s.message = ""
		}
	}
	return nil
}

// handleZoomInput 处理缩放相关按键
func (s *AquariumScene) handleZoomInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		s.viewport.ZoomIn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		s.viewport.ZoomOut()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit0) {
		s.viewport.SetDefaultZoom()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeftBracket) {
		if !s.viewport.CaptureCurrentAsMin() {
			s.showMessage("Cannot set min zoom above current max")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRightBracket) {
		if !s.viewport.CaptureCurrentAsMax() {
			s.showMessage("Cannot set max zoom below current min")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackslash) {
		s.viewport.ClearZoomBoundaries()
	}

	// 滚轮缩放
	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		if wheelY > 0 {
			s.viewport.ZoomIn()
		} else {
			s.viewport.ZoomOut()
		}
	}
}

// handlePanInput 处理 WASD 摄像机平移
func (s *AquariumScene) handlePanInput(dt float64) {
	dx, dy := 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		dx -= cameraPanSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		dx += cameraPanSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		dy -= cameraPanSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		dy += cameraPanSpeed * dt
	}
	if dx != 0 || dy != 0 {
		s.viewport.Pan(dx, dy)
	}
}

// handleObjectInput 处理选中装饰物的微调、换层与删除
func (s *AquariumScene) handleObjectInput() {
	selected := s.grid.SelectedObjectID()
	if selected == "" {
		return
	}

	if dir, ok := pressedDirection(); ok {
		s.nudgeSelected(selected, dir)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		s.changeLayer(selected, true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		s.changeLayer(selected, false)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		ctx, cancel := s.opCtx()
		defer cancel()
		if err := s.grid.RemoveObject(ctx, selected); err != nil {
			log.Printf("[Scene] Remove failed: %v", err)
			s.showMessage("Failed to remove object")
		}
	}
}

// pressedDirection 返回本帧按下的方向键
func pressedDirection() (components.Direction, bool) {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		return components.DirectionUp, true
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		return components.DirectionDown, true
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		return components.DirectionLeft, true
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		return components.DirectionRight, true
	}
	return 0, false
}

// nudgeSelected 将选中装饰物沿方向移动一格，失败时给出瞬态提示
func (s *AquariumScene) nudgeSelected(objectID string, dir components.Direction) {
	ctx, cancel := s.opCtx()
	defer cancel()

	err := s.grid.MoveObjectBy(ctx, objectID, dir)
	if err == nil {
		return
	}
	if errors.Is(err, systems.ErrPositionInvalid) {
		s.showMessage(fmt.Sprintf("Cannot move %s - position is occupied or out of bounds", dir))
		return
	}
	log.Printf("[Scene] Move failed: %v", err)
	s.showMessage("Failed to move object")
}

// changeLayer 调整选中装饰物的层级
func (s *AquariumScene) changeLayer(objectID string, foreground bool) {
	ctx, cancel := s.opCtx()
	defer cancel()

	var err error
	if foreground {
		_, err = s.grid.MoveObjectToForeground(ctx, objectID)
	} else {
		_, err = s.grid.MoveObjectToBackground(ctx, objectID)
	}
	if err != nil {
		log.Printf("[Scene] Layer change failed: %v", err)
		s.showMessage("Failed to change layer")
	}
}

// handleMouseInput 处理点选与放置
func (s *AquariumScene) handleMouseInput() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}

	settings := s.settingsManager.GetSettings()
	cameraX, cameraY := s.viewport.Camera()
	mouseX, mouseY := ebiten.CursorPosition()

	col, row, ok := utils.ScreenToTileCoords(mouseX, mouseY, cameraX, cameraY,
		s.viewport.CurrentZoomLevel(), settings.TilesHorizontal, settings.TilesVertical)
	if !ok {
		return
	}

	if id := s.grid.ObjectAt(col, row); id != "" {
		if !s.selectionEnabled {
			return
		}
		s.grid.SelectObjectByID(id)
		if s.selectionCallback != nil {
			s.selectionCallback(id)
		}
		return
	}

	// 点到空地：放置模式下放新装饰物，否则取消选中
	if s.placementSprite != "" {
		s.placeAt(col, row)
		return
	}
	s.grid.ClearSelection()
}

// placeAt 在指定格放置新装饰物
func (s *AquariumScene) placeAt(col, row int) {
	ctx, cancel := s.opCtx()
	defer cancel()

	obj := components.PlacedObject{
		ObjectID:  fmt.Sprintf("obj-%d", s.nextObjectID),
		SpriteURL: s.placementSprite,
		GridX:     col,
		GridY:     row,
		Size:      components.DefaultObjectSize,
		Layer:     components.DefaultObjectLayer,
	}
	if err := s.grid.AddObject(ctx, obj); err != nil {
		if errors.Is(err, systems.ErrPositionInvalid) {
			s.showMessage("Cannot place here - position is occupied or out of bounds")
			return
		}
		log.Printf("[Scene] Place failed: %v", err)
		s.showMessage("Failed to place object")
		return
	}
	s.nextObjectID++
}

// Draw 绘制场景与叠加信息
func (s *AquariumScene) Draw(screen *ebiten.Image) {
	s.render.Draw(screen)

	info := s.viewport.ZoomInfo()
	hud := fmt.Sprintf("zoom %d%%  tiles %d/%d  fish %d",
		info.ZoomPercentage, info.VisibleVerticalTiles, info.DefaultVisibleVerticalTiles, s.fish.Count())
	ebitenutil.DebugPrintAt(screen, hud, 8, 8)

	if s.message != "" {
		ebitenutil.DebugPrintAt(screen, s.message, 8, 28)
	}
}
