// Package app 提供水族箱应用的核心包装器
//
// 该包把初始化逻辑从 main 包提取出来：打开 gdata 存储、加载设置、
// 重建装饰物网格，并把场景接到 ebiten 的游戏循环上。
package app

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"
)

// 窗口逻辑尺寸
const (
	WindowWidth  = 1280
	WindowHeight = 720
)

// appName gdata 存储使用的应用名
const appName = "aquarium_newx"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Seed 随机数种子，0 表示取当前时间
	Seed int64
}

// App 是水族箱应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	scene    *scenes.AquariumScene
	lastTick time.Time
}

// NewApp 创建并初始化水族箱应用
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	// 打开 gdata 存储；失败时降级为纯内存模式，不阻止启动
	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable: %v (running without persistence)", err)
		gdataManager = nil
	}

	settingsManager, err := game.NewSettingsManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("failed to init settings: %w", err)
	}

	store := game.NewGdataObjectStore(gdataManager)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	scene, err := scenes.NewAquariumScene(settingsManager, store, WindowWidth, WindowHeight, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to init scene: %w", err)
	}

	// 默认启用点选，选中变化记录到日志
	scene.EnableObjectSelection(func(objectID string) {
		log.Printf("[App] Selected object %s", objectID)
	})

	log.Printf("[App] Initialized")
	return &App{
		scene:    scene,
		lastTick: time.Now(),
	}, nil
}

// Update 推进一帧游戏逻辑
func (a *App) Update() error {
	now := time.Now()
	dt := now.Sub(a.lastTick).Seconds()
	a.lastTick = now

	// 卡顿时限制单帧步长，避免鱼群瞬移
	if dt > 0.25 {
		dt = 0.25
	}
	return a.scene.Update(dt)
}

// Draw 渲染当前帧
func (a *App) Draw(screen *ebiten.Image) {
	a.scene.Draw(screen)
}

// Layout 返回逻辑屏幕尺寸
// 窗口可调整大小，逻辑尺寸跟随外部尺寸并同步到视口系统
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 {
		a.scene.Viewport().SetViewportSize(outsideWidth, outsideHeight)
		return outsideWidth, outsideHeight
	}
	return WindowWidth, WindowHeight
}

// Scene 返回场景（aquarium 句柄），供外层 UI 组件使用
func (a *App) Scene() *scenes.AquariumScene {
	return a.scene
}
