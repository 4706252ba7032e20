// verify_zoom 校验视口缩放子系统的钳制与捕获行为
package main

import (
	"fmt"
	"os"

	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/systems"
)

var failed bool

// check 记录一次断言结果
func check(name string, ok bool) {
	status := "PASS"
	if !ok {
		status = "FAIL"
		failed = true
	}
	fmt.Printf("[%s] %s\n", status, name)
}

func main() {
	minZoom, maxZoom := 0.5, 2.0
	settings := &game.AquariumSettings{
		TilesHorizontal:             40,
		TilesVertical:               20,
		DefaultVisibleVerticalTiles: 10,
		MinZoom:                     &minZoom,
		MaxZoom:                     &maxZoom,
	}
	vs := systems.NewViewportSystem(1280, 640, settings)

	// 场景：请求 3.0 被钳到上界 2.0
	vs.SetZoom(1.0)
	vs.SetZoom(3.0)
	check("zoom request 3.0 clamps to 2.0", vs.CurrentZoomLevel() == 2.0)

	info := vs.ZoomInfo()
	check("zoom percentage is round(zoom*100)", info.ZoomPercentage == 200)

	// 默认缩放恢复配置的可见格数
	vs.SetDefaultZoom()
	info = vs.ZoomInfo()
	check("default zoom restores default visible tiles",
		info.VisibleVerticalTiles == info.DefaultVisibleVerticalTiles)

	// 捕获边界保留两位小数
	vs.ClearZoomBoundaries()
	vs.SetZoom(1.234)
	vs.CaptureCurrentAsMin()
	capturedMin, _ := vs.ZoomBoundaries()
	check("captured min rounds to 1.23", capturedMin != nil && *capturedMin == 1.23)

	// 清除边界后缩放不受限
	vs.ClearZoomBoundaries()
	vs.SetZoom(25)
	check("unbounded after clear", vs.CurrentZoomLevel() == 25)

	if failed {
		fmt.Println("verify_zoom: FAILED")
		os.Exit(1)
	}
	fmt.Println("verify_zoom: all checks passed")
}
