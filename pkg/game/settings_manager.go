package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// AquariumSettings 水族箱全局设置
// 这些设置是全局的，描述世界尺寸与缩放配置，"最新值生效"，无版本号
type AquariumSettings struct {
	// 世界尺寸（格）
	TilesHorizontal int `yaml:"tilesHorizontal"` // 横向格数
	TilesVertical   int `yaml:"tilesVertical"`   // 纵向格数

	// 缩放配置
	DefaultVisibleVerticalTiles int      `yaml:"defaultVisibleVerticalTiles"` // 默认纵向可见格数
	MinZoom                     *float64 `yaml:"minZoom"`                     // 缩放下界，nil 表示不限制
	MaxZoom                     *float64 `yaml:"maxZoom"`                     // 缩放上界，nil 表示不限制

	// 鱼群
	FishCount int `yaml:"fishCount"` // 初始鱼数量
}

// DefaultSettings 返回默认设置
func DefaultSettings() *AquariumSettings {
	return &AquariumSettings{
		TilesHorizontal:             40,
		TilesVertical:               20,
		DefaultVisibleVerticalTiles: 10,
		MinZoom:                     nil,
		MaxZoom:                     nil,
		FishCount:                   12,
	}
}

// SettingsManager 设置管理器
// 负责水族箱设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager    // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *AquariumSettings // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "aquarium"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 如果加载设置失败返回错误（不影响创建）
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	// 尝试加载已保存的设置
	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或记录不存在，使用默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	var loaded AquariumSettings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	sm.settings = &loaded
	sm.sanitize()
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *AquariumSettings {
	return sm.settings
}

// SetWorldSize 设置世界尺寸（格）
// 非正值会被拒绝并保留原值
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetWorldSize(tilesHorizontal, tilesVertical int) {
	if tilesHorizontal > 0 {
		sm.settings.TilesHorizontal = tilesHorizontal
	}
	if tilesVertical > 0 {
		sm.settings.TilesVertical = tilesVertical
	}
}

// SetDefaultVisibleVerticalTiles 设置默认纵向可见格数
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetDefaultVisibleVerticalTiles(tiles int) {
	if tiles > 0 {
		sm.settings.DefaultVisibleVerticalTiles = tiles
	}
}

// SetZoomBoundaries 设置缩放边界，nil 表示对应方向不限制
//
// 返回边界是否发生了等值意义上的变化，调用方据此跳过多余的持久化。
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetZoomBoundaries(minZoom, maxZoom *float64) bool {
	if zoomBoundEqual(sm.settings.MinZoom, minZoom) && zoomBoundEqual(sm.settings.MaxZoom, maxZoom) {
		return false
	}
	sm.settings.MinZoom = minZoom
	sm.settings.MaxZoom = maxZoom
	return true
}

// zoomBoundEqual 判断两个可选缩放边界是否等值，nil 表示不限制
func zoomBoundEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SetFishCount 设置初始鱼数量
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetFishCount(count int) {
	if count >= 0 {
		sm.settings.FishCount = count
	}
}

// sanitize 修正非法的持久化值，保证配置可用
func (sm *SettingsManager) sanitize() {
	def := DefaultSettings()
	if sm.settings.TilesHorizontal <= 0 {
		sm.settings.TilesHorizontal = def.TilesHorizontal
	}
	if sm.settings.TilesVertical <= 0 {
		sm.settings.TilesVertical = def.TilesVertical
	}
	if sm.settings.DefaultVisibleVerticalTiles <= 0 {
		sm.settings.DefaultVisibleVerticalTiles = def.DefaultVisibleVerticalTiles
	}
	if sm.settings.FishCount < 0 {
		sm.settings.FishCount = def.FishCount
	}
}
