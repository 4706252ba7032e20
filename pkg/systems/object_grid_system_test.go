package systems

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/utils"
)

// newTestGrid 创建 20x20 世界的网格系统，存储为纯内存模式
func newTestGrid(t *testing.T) *ObjectGridSystem {
	t.Helper()
	store := game.NewGdataObjectStore(nil)
	grid, err := NewObjectGridSystem(context.Background(), store, 20, 20)
	if err != nil {
		t.Fatalf("Failed to create grid system: %v", err)
	}
	return grid
}

// placeTestObject 放置一个装饰物并断言成功
func placeTestObject(t *testing.T, grid *ObjectGridSystem, id string, x, y, size int) {
	t.Helper()
	err := grid.AddObject(context.Background(), components.PlacedObject{
		ObjectID:  id,
		SpriteURL: "sprites/castle.png",
		GridX:     x,
		GridY:     y,
		Size:      size,
	})
	if err != nil {
		t.Fatalf("Failed to place object %s: %v", id, err)
	}
}

// TestIsGridAreaAvailable 测试严格不重叠策略下的可用性判断
func TestIsGridAreaAvailable(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 6)

	// 与 A 重叠的区域不可用
	if grid.IsGridAreaAvailable(3, 3, 6, "") {
		t.Error("Expected area (3,3,6) overlapping A to be unavailable")
	}

	// 不重叠的区域可用
	if !grid.IsGridAreaAvailable(6, 6, 6, "") {
		t.Error("Expected area (6,6,6) to be available")
	}

	// 排除自身后，对象不会挡住自己的占地
	if !grid.IsGridAreaAvailable(0, 0, 6, "A") {
		t.Error("Expected A's own footprint to be available when excluding A")
	}
}

// TestIsGridAreaInBounds 测试边界判断
func TestIsGridAreaInBounds(t *testing.T) {
	grid := newTestGrid(t)

	cases := []struct {
		x, y, size int
		want       bool
	}{
		{0, 0, 6, true},
		{14, 14, 6, true},
		{15, 14, 6, false},
		{-1, 0, 6, false},
		{0, -1, 6, false},
		{19, 19, 1, true},
		{19, 19, 2, false},
	}
	for _, c := range cases {
		if got := grid.IsGridAreaInBounds(c.x, c.y, c.size); got != c.want {
			t.Errorf("IsGridAreaInBounds(%d,%d,%d) = %v, want %v", c.x, c.y, c.size, got, c.want)
		}
	}
}

// TestMarkGridAreaOccupied 测试占用标记的原子性与幂等性
func TestMarkGridAreaOccupied(t *testing.T) {
	grid := newTestGrid(t)

	if err := grid.MarkGridAreaOccupied("A", 2, 2, 3); err != nil {
		t.Fatalf("Failed to mark free area: %v", err)
	}
	if grid.OccupiedCellCount() != 9 {
		t.Errorf("Expected 9 occupied cells, got %d", grid.OccupiedCellCount())
	}

	// 相同参数重复调用幂等
	if err := grid.MarkGridAreaOccupied("A", 2, 2, 3); err != nil {
		t.Errorf("Repeated identical mark should succeed: %v", err)
	}
	if grid.OccupiedCellCount() != 9 {
		t.Errorf("Idempotent mark changed cell count: %d", grid.OccupiedCellCount())
	}

	// 与他人冲突时整体失败，不留部分状态
	before := grid.OccupiedCellCount()
	if err := grid.MarkGridAreaOccupied("B", 4, 4, 3); err == nil {
		t.Error("Expected mark overlapping A to fail")
	}
	if grid.OccupiedCellCount() != before {
		t.Error("Failed mark must not leave partial state")
	}
	if grid.ObjectAt(5, 5) != "" {
		t.Error("Cell outside A must stay unoccupied after failed mark")
	}
}

// TestClearGridArea 测试清除占用
func TestClearGridArea(t *testing.T) {
	grid := newTestGrid(t)
	if err := grid.MarkGridAreaOccupied("A", 0, 0, 4); err != nil {
		t.Fatalf("mark: %v", err)
	}

	grid.ClearGridArea(0, 0, 4)
	if grid.OccupiedCellCount() != 0 {
		t.Errorf("Expected all cells cleared, got %d", grid.OccupiedCellCount())
	}

	// 清除空区域是安全的
	grid.ClearGridArea(10, 10, 3)
}

// TestMoveObject 测试移动成功后索引与存储的一致性
func TestMoveObject(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 6)

	if err := grid.MoveObject(context.Background(), "A", 1, 0); err != nil {
		t.Fatalf("Move to (1,0) should succeed: %v", err)
	}

	obj, _ := grid.Object("A")
	if obj.GridX != 1 || obj.GridY != 0 {
		t.Errorf("Expected coordinates (1,0), got (%d,%d)", obj.GridX, obj.GridY)
	}

	// 旧列 0 已清空，新列 [1,7) 被标记
	for _, cell := range utils.FootprintCells(1, 0, 6) {
		if grid.ObjectAt(cell.X, cell.Y) != "A" {
			t.Errorf("Cell (%d,%d) should be occupied by A", cell.X, cell.Y)
		}
	}
	for y := 0; y < 6; y++ {
		if grid.ObjectAt(0, y) != "" {
			t.Errorf("Old cell (0,%d) should be cleared", y)
		}
	}
	if grid.OccupiedCellCount() != 36 {
		t.Errorf("Occupancy must exactly equal the footprint: got %d cells", grid.OccupiedCellCount())
	}

	// 存储侧坐标也已更新
	stored := storedObject(t, grid, "A")
	if stored.GridX != 1 || stored.GridY != 0 {
		t.Errorf("Store reports (%d,%d), want (1,0)", stored.GridX, stored.GridY)
	}
}

// storedObject 从存储读取指定装饰物
func storedObject(t *testing.T, grid *ObjectGridSystem, id string) components.PlacedObject {
	t.Helper()
	objects, err := grid.store.PlacedObjects(context.Background())
	if err != nil {
		t.Fatalf("PlacedObjects: %v", err)
	}
	for _, obj := range objects {
		if obj.ObjectID == id {
			return obj
		}
	}
	t.Fatalf("Object %s not found in store", id)
	return components.PlacedObject{}
}

// TestMoveObjectOutOfBounds 测试越界移动失败且无任何变更
func TestMoveObjectOutOfBounds(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 6)

	err := grid.MoveObject(context.Background(), "A", -1, 0)
	if !errors.Is(err, ErrPositionInvalid) {
		t.Fatalf("Expected ErrPositionInvalid, got %v", err)
	}

	obj, _ := grid.Object("A")
	if obj.GridX != 0 || obj.GridY != 0 {
		t.Errorf("Coordinates must stay (0,0) after failed move, got (%d,%d)", obj.GridX, obj.GridY)
	}
	for _, cell := range utils.FootprintCells(0, 0, 6) {
		if grid.ObjectAt(cell.X, cell.Y) != "A" {
			t.Errorf("Cell (%d,%d) must still belong to A", cell.X, cell.Y)
		}
	}
}

// TestMoveObjectIntoOccupied 测试移入他人占地失败
func TestMoveObjectIntoOccupied(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 6)
	placeTestObject(t, grid, "B", 10, 10, 6)

	err := grid.MoveObject(context.Background(), "B", 3, 3)
	if !errors.Is(err, ErrPositionInvalid) {
		t.Fatalf("Expected ErrPositionInvalid, got %v", err)
	}
	obj, _ := grid.Object("B")
	if obj.GridX != 10 || obj.GridY != 10 {
		t.Errorf("B must stay at (10,10), got (%d,%d)", obj.GridX, obj.GridY)
	}
}

// TestMoveObjectBy 测试四个方向的一格微调
func TestMoveObjectBy(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 5, 5, 3)
	ctx := context.Background()

	steps := []struct {
		dir          components.Direction
		wantX, wantY int
	}{
		{components.DirectionRight, 6, 5},
		{components.DirectionDown, 6, 6},
		{components.DirectionLeft, 5, 6},
		{components.DirectionUp, 5, 5},
	}
	for _, step := range steps {
		if err := grid.MoveObjectBy(ctx, "A", step.dir); err != nil {
			t.Fatalf("MoveObjectBy(%s): %v", step.dir, err)
		}
		obj, _ := grid.Object("A")
		if obj.GridX != step.wantX || obj.GridY != step.wantY {
			t.Errorf("After %s expected (%d,%d), got (%d,%d)", step.dir, step.wantX, step.wantY, obj.GridX, obj.GridY)
		}
	}
}

// TestLayerOperations 测试换层的逆操作性质
func TestLayerOperations(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 3)
	ctx := context.Background()

	obj, _ := grid.Object("A")
	originalLayer := obj.Layer

	newLayer, err := grid.MoveObjectToForeground(ctx, "A")
	if err != nil {
		t.Fatalf("MoveObjectToForeground: %v", err)
	}
	if newLayer != originalLayer+1 {
		t.Errorf("Expected layer %d after foreground, got %d", originalLayer+1, newLayer)
	}
	if obj.Layer != newLayer {
		t.Errorf("In-memory layer not updated: %d", obj.Layer)
	}

	// 前移后再后移恢复原层级
	restored, err := grid.MoveObjectToBackground(ctx, "A")
	if err != nil {
		t.Fatalf("MoveObjectToBackground: %v", err)
	}
	if restored != originalLayer {
		t.Errorf("Foreground then background must restore layer %d, got %d", originalLayer, restored)
	}

	// 未知 id 返回 ObjectNotFound
	if _, err := grid.MoveObjectToForeground(ctx, "ghost"); !errors.Is(err, game.ErrObjectNotFound) {
		t.Errorf("Expected ErrObjectNotFound for unknown id, got %v", err)
	}
}

// TestRemoveObject 测试删除：清占地、去选中、删存储
func TestRemoveObject(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 6)
	grid.SelectObjectByID("A")

	if err := grid.RemoveObject(context.Background(), "A"); err != nil {
		t.Fatalf("RemoveObject: %v", err)
	}

	if _, ok := grid.Object("A"); ok {
		t.Error("Object should be gone from the live list")
	}
	if grid.OccupiedCellCount() != 0 {
		t.Errorf("All cells should be cleared, got %d", grid.OccupiedCellCount())
	}
	if grid.SelectedObjectID() != "" {
		t.Error("Selection should be cleared after removing the selected object")
	}

	objects, err := grid.store.PlacedObjects(context.Background())
	if err != nil {
		t.Fatalf("PlacedObjects: %v", err)
	}
	if len(objects) != 0 {
		t.Errorf("Store should be empty, got %d objects", len(objects))
	}
}

// TestRemoveObjectWithoutOccupancy 测试对无占用记录的对象删除不崩溃
func TestRemoveObjectWithoutOccupancy(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 3)

	// 模拟同步漂移：占用记录已丢失
	grid.ClearGridArea(0, 0, 3)

	if err := grid.RemoveObject(context.Background(), "A"); err != nil {
		t.Fatalf("Remove must be safe without occupancy records: %v", err)
	}
}

// TestSelection 测试选中状态的无操作语义
func TestSelection(t *testing.T) {
	grid := newTestGrid(t)
	placeTestObject(t, grid, "A", 0, 0, 3)

	// 未知 id 是无操作
	grid.SelectObjectByID("ghost")
	if grid.SelectedObjectID() != "" {
		t.Error("Selecting an unknown id must be a no-op")
	}

	grid.SelectObjectByID("A")
	if grid.SelectedObjectID() != "A" {
		t.Errorf("Expected A selected, got %q", grid.SelectedObjectID())
	}

	grid.ClearSelection()
	if grid.SelectedObjectID() != "" {
		t.Error("ClearSelection must clear the selection")
	}
}

// TestRebuildFromStore 测试初始化时从存储重建索引
func TestRebuildFromStore(t *testing.T) {
	store := game.NewGdataObjectStore(nil)
	ctx := context.Background()
	if err := store.AddPlacedObject(ctx, components.PlacedObject{
		ObjectID: "A", GridX: 2, GridY: 3, Size: 4, SpriteURL: "sprites/rock.png",
	}); err != nil {
		t.Fatalf("AddPlacedObject: %v", err)
	}

	grid, err := NewObjectGridSystem(ctx, store, 20, 20)
	if err != nil {
		t.Fatalf("NewObjectGridSystem: %v", err)
	}

	if grid.OccupiedCellCount() != 16 {
		t.Errorf("Expected 16 rebuilt cells, got %d", grid.OccupiedCellCount())
	}
	if grid.ObjectAt(5, 6) != "A" {
		t.Error("Rebuilt index should contain A's footprint")
	}
}

// failingStore 在指定操作上失败的存储桩，用于回滚测试
type failingStore struct {
	game.ObjectStore
	failUpdate bool
	failDelete bool
}

func (f *failingStore) UpdatePlacedObject(ctx context.Context, id string, fields game.ObjectFields) error {
	if f.failUpdate {
		return fmt.Errorf("%w: disk full", game.ErrPersistenceFailure)
	}
	return f.ObjectStore.UpdatePlacedObject(ctx, id, fields)
}

func (f *failingStore) DeletePlacedObject(ctx context.Context, id string) error {
	if f.failDelete {
		return fmt.Errorf("%w: disk full", game.ErrPersistenceFailure)
	}
	return f.ObjectStore.DeletePlacedObject(ctx, id)
}

// TestMoveObjectRollbackOnStoreFailure 测试持久化失败时回滚乐观变更
func TestMoveObjectRollbackOnStoreFailure(t *testing.T) {
	inner := game.NewGdataObjectStore(nil)
	store := &failingStore{ObjectStore: inner}
	ctx := context.Background()

	grid, err := NewObjectGridSystem(ctx, store, 20, 20)
	if err != nil {
		t.Fatalf("NewObjectGridSystem: %v", err)
	}
	if err := grid.AddObject(ctx, components.PlacedObject{ObjectID: "A", GridX: 0, GridY: 0, Size: 6}); err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	store.failUpdate = true
	err = grid.MoveObject(ctx, "A", 1, 0)
	if !errors.Is(err, game.ErrPersistenceFailure) {
		t.Fatalf("Expected ErrPersistenceFailure, got %v", err)
	}

	// 内存回滚到调用前状态
	obj, _ := grid.Object("A")
	if obj.GridX != 0 || obj.GridY != 0 {
		t.Errorf("Coordinates must roll back to (0,0), got (%d,%d)", obj.GridX, obj.GridY)
	}
	for _, cell := range utils.FootprintCells(0, 0, 6) {
		if grid.ObjectAt(cell.X, cell.Y) != "A" {
			t.Errorf("Cell (%d,%d) must roll back to A", cell.X, cell.Y)
		}
	}
	if grid.OccupiedCellCount() != 36 {
		t.Errorf("Occupancy count must roll back to 36, got %d", grid.OccupiedCellCount())
	}
}

// TestRemoveObjectRollbackOnStoreFailure 测试删除失败时恢复内存状态
func TestRemoveObjectRollbackOnStoreFailure(t *testing.T) {
	inner := game.NewGdataObjectStore(nil)
	store := &failingStore{ObjectStore: inner}
	ctx := context.Background()

	grid, err := NewObjectGridSystem(ctx, store, 20, 20)
	if err != nil {
		t.Fatalf("NewObjectGridSystem: %v", err)
	}
	if err := grid.AddObject(ctx, components.PlacedObject{ObjectID: "A", GridX: 0, GridY: 0, Size: 3}); err != nil {
		t.Fatalf("AddObject: %v", err)
	}

	store.failDelete = true
	if err := grid.RemoveObject(ctx, "A"); !errors.Is(err, game.ErrPersistenceFailure) {
		t.Fatalf("Expected ErrPersistenceFailure, got %v", err)
	}

	if _, ok := grid.Object("A"); !ok {
		t.Error("Object must be restored after failed delete")
	}
	if grid.OccupiedCellCount() != 9 {
		t.Errorf("Occupancy must be restored, got %d cells", grid.OccupiedCellCount())
	}
}

// TestOccupancyInvariant 测试任意操作序列后占用与占地完全一致
func TestOccupancyInvariant(t *testing.T) {
	grid := newTestGrid(t)
	ctx := context.Background()

	placeTestObject(t, grid, "A", 0, 0, 4)
	placeTestObject(t, grid, "B", 10, 10, 5)

	// 一串移动（含失败的）之后检查索引与坐标严格一致
	_ = grid.MoveObject(ctx, "A", 2, 2)
	_ = grid.MoveObject(ctx, "B", 0, 0) // 与 A 冲突，失败
	_ = grid.MoveObject(ctx, "B", 12, 12)
	_ = grid.MoveObjectBy(ctx, "A", components.DirectionLeft)

	total := 0
	for id, obj := range grid.Objects() {
		for _, cell := range utils.FootprintCells(obj.GridX, obj.GridY, obj.Size) {
			if owner := grid.ObjectAt(cell.X, cell.Y); owner != id {
				t.Errorf("Cell (%d,%d) owned by %q, want %q", cell.X, cell.Y, owner, id)
			}
		}
		total += obj.Size * obj.Size
	}
	if grid.OccupiedCellCount() != total {
		t.Errorf("Index has %d cells, footprints cover %d", grid.OccupiedCellCount(), total)
	}
}
