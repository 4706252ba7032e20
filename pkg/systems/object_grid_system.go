package systems

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/utils"
)

// ErrPositionInvalid 表示目标位置校验失败（被占用或越界）
var ErrPositionInvalid = errors.New("position is occupied or out of bounds")

// ObjectGridSystem 管理装饰物网格的占用状态
//
// 负责跟踪哪些格子被哪个装饰物占用，并提供移动、换层、删除等复合操作。
// 职责边界：
//   - 内存占用索引与装饰物列表由本系统独占，UI 只通过公开操作驱动
//   - 持久化存储是跨次启动的事实来源，初始化时从存储重建索引
//   - 放置策略为严格不重叠：目标区域必须完整在界内且未被其他装饰物占用
//
// 一致性规则（对所有持久化变更统一生效）：
// 先乐观应用内存变更，再调用存储；存储失败时回滚到调用前快照，
// 因此任何返回错误的操作都不会留下内存与存储不一致的状态。
type ObjectGridSystem struct {
	store game.ObjectStore

	tilesHorizontal int // 世界横向格数
	tilesVertical   int // 世界纵向格数

	// cells 占用索引: 格坐标 -> 占用者 objectID
	// 查询代价为 O(占地面积)，与装饰物总数无关
	cells map[utils.TileCoord]string

	// objects 装饰物列表: objectID -> 内存句柄
	objects map[string]*components.PlacedObject

	// selectedID 当前选中的装饰物，纯视觉状态，空串表示无选中
	selectedID string
}

// NewObjectGridSystem 创建装饰物网格系统并从存储重建占用索引
//
// 参数:
//   - ctx: 初始加载使用的上下文
//   - store: 装饰物持久化存储
//   - tilesHorizontal, tilesVertical: 世界尺寸（格）
//
// 返回:
//   - *ObjectGridSystem: 网格系统实例
//   - error: 初始加载失败时返回错误
func NewObjectGridSystem(ctx context.Context, store game.ObjectStore, tilesHorizontal, tilesVertical int) (*ObjectGridSystem, error) {
	s := &ObjectGridSystem{
		store:           store,
		tilesHorizontal: tilesHorizontal,
		tilesVertical:   tilesVertical,
		cells:           make(map[utils.TileCoord]string),
		objects:         make(map[string]*components.PlacedObject),
	}

	loaded, err := store.PlacedObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load placed objects: %w", err)
	}

	for _, obj := range loaded {
		o := obj
		s.objects[o.ObjectID] = &o
		// 重建索引时容忍历史数据冲突：已被占的格子保留先到者，只记日志
		for _, cell := range utils.FootprintCells(o.GridX, o.GridY, o.Size) {
			if owner, taken := s.cells[cell]; taken {
				log.Printf("[ObjectGrid] Warning: cell (%d,%d) claimed by both %s and %s, keeping %s",
					cell.X, cell.Y, owner, o.ObjectID, owner)
				continue
			}
			s.cells[cell] = o.ObjectID
		}
	}

	log.Printf("[ObjectGrid] Rebuilt occupancy index: %d objects, %d cells", len(s.objects), len(s.cells))
	return s, nil
}

// Objects 返回装饰物列表（objectID -> 句柄）
// 调用方只读，不得直接修改句柄字段，所有变更走本系统的操作
func (s *ObjectGridSystem) Objects() map[string]*components.PlacedObject {
	return s.objects
}

// Object 按 id 查找装饰物句柄
func (s *ObjectGridSystem) Object(id string) (*components.PlacedObject, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// IsGridAreaAvailable 检查目标区域是否可用（仅占用维度）
// 当区域内每个格子都未被占用、或仅被 excludeID 占用时返回 true
func (s *ObjectGridSystem) IsGridAreaAvailable(x, y, size int, excludeID string) bool {
	for _, cell := range utils.FootprintCells(x, y, size) {
		owner, taken := s.cells[cell]
		if taken && owner != excludeID {
			return false
		}
	}
	return true
}

// IsGridAreaInBounds 检查目标区域是否完整落在世界范围内
func (s *ObjectGridSystem) IsGridAreaInBounds(x, y, size int) bool {
	return utils.IsFootprintInBounds(x, y, size, s.tilesHorizontal, s.tilesVertical)
}

// MarkGridAreaOccupied 将目标区域的每个格子标记为 objectID 占用
//
// 先校验后写入：任何格子被其他装饰物占用时整体失败，索引保持不变。
// 用相同参数重复调用是幂等的。
func (s *ObjectGridSystem) MarkGridAreaOccupied(objectID string, x, y, size int) error {
	cells := utils.FootprintCells(x, y, size)
	for _, cell := range cells {
		if owner, taken := s.cells[cell]; taken && owner != objectID {
			return fmt.Errorf("%w: cell (%d,%d) occupied by %s", ErrPositionInvalid, cell.X, cell.Y, owner)
		}
	}
	for _, cell := range cells {
		s.cells[cell] = objectID
	}
	return nil
}

// ClearGridArea 清除目标区域的占用记录，不区分占用者
// 与 MarkGridAreaOccupied 配对使用时保持"先清后标"的顺序
func (s *ObjectGridSystem) ClearGridArea(x, y, size int) {
	for _, cell := range utils.FootprintCells(x, y, size) {
		delete(s.cells, cell)
	}
}

// validatePlacement 严格不重叠策略的落点校验：界内且未被他人占用
func (s *ObjectGridSystem) validatePlacement(x, y, size int, excludeID string) bool {
	return s.IsGridAreaInBounds(x, y, size) && s.IsGridAreaAvailable(x, y, size, excludeID)
}

// AddObject 放置新装饰物：校验落点、写入存储、标记占用
//
// 落点非法返回 ErrPositionInvalid；存储失败时不留任何内存变更。
func (s *ObjectGridSystem) AddObject(ctx context.Context, obj components.PlacedObject) error {
	if obj.Size <= 0 {
		obj.Size = components.DefaultObjectSize
	}
	if _, exists := s.objects[obj.ObjectID]; exists {
		return fmt.Errorf("object %s already placed", obj.ObjectID)
	}
	if !s.validatePlacement(obj.GridX, obj.GridY, obj.Size, obj.ObjectID) {
		return fmt.Errorf("%w: (%d,%d) size %d", ErrPositionInvalid, obj.GridX, obj.GridY, obj.Size)
	}

	if err := s.store.AddPlacedObject(ctx, obj); err != nil {
		return fmt.Errorf("failed to persist new object %s: %w", obj.ObjectID, err)
	}

	o := obj
	s.objects[o.ObjectID] = &o
	if err := s.MarkGridAreaOccupied(o.ObjectID, o.GridX, o.GridY, o.Size); err != nil {
		// validatePlacement 已通过，这里只可能是编程错误
		return err
	}
	log.Printf("[ObjectGrid] Placed %s at (%d,%d) size %d", o.ObjectID, o.GridX, o.GridY, o.Size)
	return nil
}

// MoveObject 将装饰物移动到新锚点
//
// 流程：校验落点 → 清旧占地 → 更新坐标 → 标新占地 → 持久化。
// 校验失败返回 ErrPositionInvalid 且无任何变更；
// 持久化失败时回滚内存（坐标与占用索引恢复调用前状态）后返回错误。
func (s *ObjectGridSystem) MoveObject(ctx context.Context, objectID string, newX, newY int) error {
	obj, ok := s.objects[objectID]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrObjectNotFound, objectID)
	}

	if !s.validatePlacement(newX, newY, obj.Size, objectID) {
		return fmt.Errorf("%w: (%d,%d) size %d", ErrPositionInvalid, newX, newY, obj.Size)
	}

	oldX, oldY := obj.GridX, obj.GridY

	// 先清后标，两步之间无阻塞调用，单帧内不会被同对象的其他操作打断
	s.ClearGridArea(oldX, oldY, obj.Size)
	obj.UpdatePosition(newX, newY)
	if err := s.MarkGridAreaOccupied(objectID, newX, newY, obj.Size); err != nil {
		// 校验已通过仍标记失败属于编程错误，恢复原状后上报
		obj.UpdatePosition(oldX, oldY)
		_ = s.MarkGridAreaOccupied(objectID, oldX, oldY, obj.Size)
		return err
	}

	x, y := newX, newY
	if err := s.store.UpdatePlacedObject(ctx, objectID, game.ObjectFields{GridX: &x, GridY: &y}); err != nil {
		// 回滚乐观变更
		s.ClearGridArea(newX, newY, obj.Size)
		obj.UpdatePosition(oldX, oldY)
		_ = s.MarkGridAreaOccupied(objectID, oldX, oldY, obj.Size)
		return fmt.Errorf("failed to persist move of %s: %w", objectID, err)
	}

	return nil
}

// MoveObjectBy 沿基本方向移动装饰物一格
func (s *ObjectGridSystem) MoveObjectBy(ctx context.Context, objectID string, dir components.Direction) error {
	obj, ok := s.objects[objectID]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrObjectNotFound, objectID)
	}
	dx, dy := dir.Delta()
	return s.MoveObject(ctx, objectID, obj.GridX+dx, obj.GridY+dy)
}

// MoveObjectToForeground 将装饰物层级前移一层
// 新层级由存储计算并返回，内存句柄随之更新
func (s *ObjectGridSystem) MoveObjectToForeground(ctx context.Context, objectID string) (int, error) {
	return s.shiftLayer(ctx, objectID, true)
}

// MoveObjectToBackground 将装饰物层级后移一层
func (s *ObjectGridSystem) MoveObjectToBackground(ctx context.Context, objectID string) (int, error) {
	return s.shiftLayer(ctx, objectID, false)
}

// shiftLayer 换层的公共实现
func (s *ObjectGridSystem) shiftLayer(ctx context.Context, objectID string, foreground bool) (int, error) {
	obj, ok := s.objects[objectID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", game.ErrObjectNotFound, objectID)
	}

	var newLayer int
	var err error
	if foreground {
		newLayer, err = s.store.MoveObjectToForeground(ctx, objectID)
	} else {
		newLayer, err = s.store.MoveObjectToBackground(ctx, objectID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to change layer of %s: %w", objectID, err)
	}

	obj.Layer = newLayer
	return newLayer, nil
}

// RemoveObject 删除装饰物：清占地、去选中、删持久化记录
//
// 对没有占用记录的装饰物（同步漂移）调用是安全的。
// 持久化失败时回滚内存删除。
func (s *ObjectGridSystem) RemoveObject(ctx context.Context, objectID string) error {
	obj, ok := s.objects[objectID]
	if !ok {
		// 内存中不存在，仍尝试清理存储侧的残留记录
		return s.store.DeletePlacedObject(ctx, objectID)
	}

	wasSelected := s.selectedID == objectID

	s.ClearGridArea(obj.GridX, obj.GridY, obj.Size)
	delete(s.objects, objectID)
	if wasSelected {
		s.selectedID = ""
	}

	if err := s.store.DeletePlacedObject(ctx, objectID); err != nil {
		// 回滚乐观删除；存储侧本就没有记录时删除已达目的，不回滚
		if !errors.Is(err, game.ErrObjectNotFound) {
			s.objects[objectID] = obj
			_ = s.MarkGridAreaOccupied(objectID, obj.GridX, obj.GridY, obj.Size)
			if wasSelected {
				s.selectedID = objectID
			}
			return fmt.Errorf("failed to delete %s: %w", objectID, err)
		}
	}

	log.Printf("[ObjectGrid] Removed %s", objectID)
	return nil
}

// SelectObjectByID 选中装饰物（纯视觉反馈）
// 未知 id 是无操作，不报错
func (s *ObjectGridSystem) SelectObjectByID(objectID string) {
	if _, ok := s.objects[objectID]; !ok {
		return
	}
	s.selectedID = objectID
}

// ClearSelection 清除选中状态
func (s *ObjectGridSystem) ClearSelection() {
	s.selectedID = ""
}

// SelectedObjectID 返回当前选中的装饰物 id，无选中时返回空串
func (s *ObjectGridSystem) SelectedObjectID() string {
	return s.selectedID
}

// ObjectAt 返回占用指定格子的装饰物 id，空串表示无占用
func (s *ObjectGridSystem) ObjectAt(x, y int) string {
	return s.cells[utils.TileCoord{X: x, Y: y}]
}

// OccupiedCellCount 返回当前被占用的格子总数（调试与测试用）
func (s *ObjectGridSystem) OccupiedCellCount() int {
	return len(s.cells)
}
