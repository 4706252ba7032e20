package game

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 持久化错误
// 调用方使用 errors.Is 判别，核心操作不跨 UI 边界抛异常
var (
	// ErrObjectNotFound 表示操作引用了存储中不存在的装饰物
	ErrObjectNotFound = errors.New("placed object not found")

	// ErrPersistenceFailure 表示存储操作被拒绝或失败
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrPersistenceTimeout 表示存储操作超时被放弃
	ErrPersistenceTimeout = errors.New("persistence timeout")
)

// 存储路径常量
const (
	objectsObject   = "placed_objects"
	objectsProperty = "all"
)

// placedObjectRecord 持久化记录（snake_case 字段，与存档格式保持一致）
//
// Size 与 Layer 用指针区分"缺失"与"零值"，缺失时读取侧补默认值。
// 记录与内存形态的转换只发生在本文件的 normalize/denormalize 中，
// 每次读取恰好归一化一次，上层只见统一的 components.PlacedObject。
type placedObjectRecord struct {
	ObjectID  string `yaml:"object_id"`
	SpriteURL string `yaml:"sprite_url"`
	GridX     int    `yaml:"grid_x"`
	GridY     int    `yaml:"grid_y"`
	Size      *int   `yaml:"size,omitempty"`
	Layer     *int   `yaml:"layer,omitempty"`
}

// normalizeRecord 将持久化记录转换为内存中的规范形态，补齐缺省字段
func normalizeRecord(rec placedObjectRecord) components.PlacedObject {
	obj := components.PlacedObject{
		ObjectID:  rec.ObjectID,
		SpriteURL: rec.SpriteURL,
		GridX:     rec.GridX,
		GridY:     rec.GridY,
		Size:      components.DefaultObjectSize,
		Layer:     components.DefaultObjectLayer,
	}
	if rec.Size != nil && *rec.Size > 0 {
		obj.Size = *rec.Size
	}
	if rec.Layer != nil {
		obj.Layer = *rec.Layer
	}
	return obj
}

// denormalizeObject 将内存形态转换回持久化记录
func denormalizeObject(obj components.PlacedObject) placedObjectRecord {
	size := obj.Size
	layer := obj.Layer
	return placedObjectRecord{
		ObjectID:  obj.ObjectID,
		SpriteURL: obj.SpriteURL,
		GridX:     obj.GridX,
		GridY:     obj.GridY,
		Size:      &size,
		Layer:     &layer,
	}
}

// ObjectFields 部分更新的字段集合，nil 字段保持原值
type ObjectFields struct {
	GridX     *int
	GridY     *int
	Size      *int
	Layer     *int
	SpriteURL *string
}

// ObjectStore 装饰物持久化接口
//
// 所有方法遵守 ctx 的取消与超时；偏好级读取由调用方包一层短超时，
// 超时后放弃并退回默认值，绝不阻塞 UI。
type ObjectStore interface {
	// PlacedObjects 返回全部装饰物（规范形态）
	PlacedObjects(ctx context.Context) ([]components.PlacedObject, error)

	// AddPlacedObject 新增装饰物记录
	AddPlacedObject(ctx context.Context, obj components.PlacedObject) error

	// UpdatePlacedObject 部分更新指定装饰物，id 不存在返回 ErrObjectNotFound
	UpdatePlacedObject(ctx context.Context, id string, fields ObjectFields) error

	// DeletePlacedObject 删除指定装饰物的持久化记录
	DeletePlacedObject(ctx context.Context, id string) error

	// MoveObjectToForeground 层级 +1，返回存储计算出的新层级
	MoveObjectToForeground(ctx context.Context, id string) (int, error)

	// MoveObjectToBackground 层级 -1，返回存储计算出的新层级
	MoveObjectToBackground(ctx context.Context, id string) (int, error)
}

// GdataObjectStore 基于 gdata 的装饰物存储
//
// 内存中维护一份记录列表，写操作先改内存再落盘（write-through）。
// gdataManager 为 nil 时进入降级模式，仅内存存储，不报错。
type GdataObjectStore struct {
	gdataManager *gdata.Manager
	records      []placedObjectRecord
}

// NewGdataObjectStore 创建装饰物存储并加载已有记录
//
// 参数：
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式）
//
// 返回：
//   - *GdataObjectStore: 存储实例（加载失败时为空列表，不影响创建）
func NewGdataObjectStore(gdataManager *gdata.Manager) *GdataObjectStore {
	s := &GdataObjectStore{
		gdataManager: gdataManager,
		records:      []placedObjectRecord{},
	}
	if err := s.load(); err != nil {
		log.Printf("[ObjectStore] Warning: Failed to load placed objects: %v (starting empty)", err)
	}
	return s
}

// load 从 gdata 读取记录列表
func (s *GdataObjectStore) load() error {
	if s.gdataManager == nil {
		return nil
	}
	if !s.gdataManager.ObjectPropExists(objectsObject, objectsProperty) {
		return nil
	}
	data, err := s.gdataManager.LoadObjectProp(objectsObject, objectsProperty)
	if err != nil {
		return fmt.Errorf("failed to load placed objects: %w", err)
	}
	var records []placedObjectRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal placed objects: %w", err)
	}
	s.records = records
	log.Printf("[ObjectStore] Loaded %d placed objects", len(records))
	return nil
}

// flush 将记录列表写回 gdata
func (s *GdataObjectStore) flush() error {
	if s.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to marshal placed objects: %w", err)
	}
	if err := s.gdataManager.SaveObjectProp(objectsObject, objectsProperty, data); err != nil {
		return fmt.Errorf("failed to save placed objects: %w", err)
	}
	return nil
}

// ctxErr 将 ctx 终止状态映射为持久化错误，未终止时返回 nil
func ctxErr(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return fmt.Errorf("%w: %v", ErrPersistenceTimeout, ctx.Err())
	default:
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, ctx.Err())
	}
}

// findIndex 返回记录下标，不存在时返回 -1
func (s *GdataObjectStore) findIndex(id string) int {
	for i := range s.records {
		if s.records[i].ObjectID == id {
			return i
		}
	}
	return -1
}

// PlacedObjects 返回全部装饰物的规范形态
// 归一化在此处恰好发生一次，上层不再做字段形态转换
func (s *GdataObjectStore) PlacedObjects(ctx context.Context) ([]components.PlacedObject, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	objects := make([]components.PlacedObject, 0, len(s.records))
	for _, rec := range s.records {
		objects = append(objects, normalizeRecord(rec))
	}
	return objects, nil
}

// AddPlacedObject 新增装饰物记录，id 重复时覆盖旧记录
func (s *GdataObjectStore) AddPlacedObject(ctx context.Context, obj components.PlacedObject) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	rec := denormalizeObject(obj)
	if i := s.findIndex(obj.ObjectID); i >= 0 {
		s.records[i] = rec
	} else {
		s.records = append(s.records, rec)
	}
	return s.flush()
}

// UpdatePlacedObject 部分更新指定装饰物
func (s *GdataObjectStore) UpdatePlacedObject(ctx context.Context, id string, fields ObjectFields) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	i := s.findIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	rec := &s.records[i]
	if fields.GridX != nil {
		rec.GridX = *fields.GridX
	}
	if fields.GridY != nil {
		rec.GridY = *fields.GridY
	}
	if fields.Size != nil {
		rec.Size = fields.Size
	}
	if fields.Layer != nil {
		rec.Layer = fields.Layer
	}
	if fields.SpriteURL != nil {
		rec.SpriteURL = *fields.SpriteURL
	}
	return s.flush()
}

// DeletePlacedObject 删除指定装饰物的持久化记录
func (s *GdataObjectStore) DeletePlacedObject(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	i := s.findIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return s.flush()
}

// MoveObjectToForeground 层级 +1 并返回新层级
//
// 层级增量由存储侧定义为恰好 ±1，保证前移/后移互为逆操作
func (s *GdataObjectStore) MoveObjectToForeground(ctx context.Context, id string) (int, error) {
	return s.shiftLayer(ctx, id, +1)
}

// MoveObjectToBackground 层级 -1 并返回新层级
func (s *GdataObjectStore) MoveObjectToBackground(ctx context.Context, id string) (int, error) {
	return s.shiftLayer(ctx, id, -1)
}

// shiftLayer 调整层级并落盘，返回新层级
func (s *GdataObjectStore) shiftLayer(ctx context.Context, id string, delta int) (int, error) {
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	i := s.findIndex(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	layer := components.DefaultObjectLayer
	if s.records[i].Layer != nil {
		layer = *s.records[i].Layer
	}
	layer += delta
	s.records[i].Layer = &layer
	if err := s.flush(); err != nil {
		return 0, err
	}
	return layer, nil
}
