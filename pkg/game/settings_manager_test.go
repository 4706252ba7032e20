package game

import (
	"testing"
)

// TestDefaultSettings 测试默认设置
func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.TilesHorizontal <= 0 || s.TilesVertical <= 0 {
		t.Error("Default world size must be positive")
	}
	if s.DefaultVisibleVerticalTiles <= 0 {
		t.Error("Default visible vertical tiles must be positive")
	}
	if s.MinZoom != nil || s.MaxZoom != nil {
		t.Error("Zoom must be unbounded by default")
	}
}

// TestSettingsManagerNilGdata 测试降级模式（无持久化）
func TestSettingsManagerNilGdata(t *testing.T) {
	sm, err := NewSettingsManager(nil)
	if err != nil {
		t.Fatalf("NewSettingsManager: %v", err)
	}

	// 降级模式下保存不报错
	if err := sm.Save(); err != nil {
		t.Errorf("Save in degraded mode must not fail: %v", err)
	}

	sm.SetWorldSize(30, 15)
	s := sm.GetSettings()
	if s.TilesHorizontal != 30 || s.TilesVertical != 15 {
		t.Errorf("Expected 30x15, got %dx%d", s.TilesHorizontal, s.TilesVertical)
	}

	// 非法尺寸被拒绝，保留原值
	sm.SetWorldSize(0, -1)
	if s.TilesHorizontal != 30 || s.TilesVertical != 15 {
		t.Errorf("Invalid sizes must be rejected, got %dx%d", s.TilesHorizontal, s.TilesVertical)
	}
}

// TestSetZoomBoundariesReportsChange 测试边界写入的变更信号
//
// 缩放变更通知里边界往往没变，调用方依赖该信号跳过多余的落盘。
func TestSetZoomBoundariesReportsChange(t *testing.T) {
	sm, err := NewSettingsManager(nil)
	if err != nil {
		t.Fatalf("NewSettingsManager: %v", err)
	}

	minZoom, maxZoom := 0.5, 2.0
	if !sm.SetZoomBoundaries(&minZoom, &maxZoom) {
		t.Error("First boundary write must report a change")
	}

	// 等值重写（不同指针、相同数值）不算变更
	sameMin, sameMax := 0.5, 2.0
	if sm.SetZoomBoundaries(&sameMin, &sameMax) {
		t.Error("Equal-valued rewrite must not report a change")
	}

	// 单边变化算变更
	newMax := 3.0
	if !sm.SetZoomBoundaries(&minZoom, &newMax) {
		t.Error("Changing one bound must report a change")
	}

	// 清除算变更，重复清除不算
	if !sm.SetZoomBoundaries(nil, nil) {
		t.Error("Clearing bounds must report a change")
	}
	if sm.SetZoomBoundaries(nil, nil) {
		t.Error("Clearing already-nil bounds must not report a change")
	}
}

// TestSettingsRoundTrip 测试设置经 gdata 的保存与加载
func TestSettingsRoundTrip(t *testing.T) {
	manager := createTestGdataManager(t, "settings")
	if manager == nil {
		t.Skip("Cannot create gdata manager for testing")
	}

	sm, err := NewSettingsManager(manager)
	if err != nil {
		t.Fatalf("NewSettingsManager: %v", err)
	}

	minZoom, maxZoom := 0.5, 2.0
	sm.SetWorldSize(25, 18)
	sm.SetDefaultVisibleVerticalTiles(8)
	sm.SetZoomBoundaries(&minZoom, &maxZoom)
	if err := sm.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewSettingsManager(manager)
	if err != nil {
		t.Fatalf("NewSettingsManager (reload): %v", err)
	}
	s := reloaded.GetSettings()
	if s.TilesHorizontal != 25 || s.TilesVertical != 18 {
		t.Errorf("World size lost: %dx%d", s.TilesHorizontal, s.TilesVertical)
	}
	if s.DefaultVisibleVerticalTiles != 8 {
		t.Errorf("Default visible tiles lost: %d", s.DefaultVisibleVerticalTiles)
	}
	if s.MinZoom == nil || *s.MinZoom != 0.5 || s.MaxZoom == nil || *s.MaxZoom != 2.0 {
		t.Errorf("Zoom boundaries lost: min=%v max=%v", s.MinZoom, s.MaxZoom)
	}

	// 清除边界后再往返，nil 应被保留
	reloaded.SetZoomBoundaries(nil, nil)
	if err := reloaded.Save(); err != nil {
		t.Fatalf("Save after clearing boundaries: %v", err)
	}
	final, err := NewSettingsManager(manager)
	if err != nil {
		t.Fatalf("NewSettingsManager (final): %v", err)
	}
	if final.GetSettings().MinZoom != nil || final.GetSettings().MaxZoom != nil {
		t.Error("Cleared boundaries must reload as nil")
	}
}
