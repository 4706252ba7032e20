// verify_placement 校验网格放置子系统的核心不变量
//
// 不依赖窗口环境，直接驱动 ObjectGridSystem 跑一遍放置/移动/删除流程，
// 任何不变量被破坏时以非零状态退出。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/game"
	"github.com/gonewx/aquarium/pkg/systems"
	"github.com/gonewx/aquarium/pkg/utils"
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
	ctx := context.Background()
	store := game.NewGdataObjectStore(nil)
	grid, err := systems.NewObjectGridSystem(ctx, store, 20, 20)
	if err != nil {
		fmt.Printf("init failed: %v\n", err)
		os.Exit(1)
	}

	// 场景：20x20 世界，A 尺寸 6 放在 (0,0)
	err = grid.AddObject(ctx, components.PlacedObject{ObjectID: "A", GridX: 0, GridY: 0, Size: 6})
	check("place A at (0,0) size 6", err == nil)

	check("area (3,3,6) overlapping A unavailable", !grid.IsGridAreaAvailable(3, 3, 6, ""))
	check("area (6,6,6) available", grid.IsGridAreaAvailable(6, 6, 6, ""))
	check("A does not block itself when excluded", grid.IsGridAreaAvailable(0, 0, 6, "A"))

	// 右移一格成功，旧列清空新列标记
	err = grid.MoveObject(ctx, "A", 1, 0)
	check("move A to (1,0)", err == nil)
	obj, _ := grid.Object("A")
	check("A coordinates updated", obj.GridX == 1 && obj.GridY == 0)
	cellsOK := true
	for _, cell := range utils.FootprintCells(1, 0, 6) {
		if grid.ObjectAt(cell.X, cell.Y) != "A" {
			cellsOK = false
		}
	}
	for y := 0; y < 6; y++ {
		if grid.ObjectAt(0, y) != "" {
			cellsOK = false
		}
	}
	check("occupancy matches footprint after move", cellsOK && grid.OccupiedCellCount() == 36)

	// 越界移动失败且无变更
	err = grid.MoveObject(ctx, "A", -1, 0)
	check("move A to (-1,0) rejected", errors.Is(err, systems.ErrPositionInvalid))
	check("A unchanged after rejection", obj.GridX == 1 && obj.GridY == 0)

	// 换层互为逆操作
	before := obj.Layer
	if _, err := grid.MoveObjectToForeground(ctx, "A"); err != nil {
		check("foreground", false)
	}
	if _, err := grid.MoveObjectToBackground(ctx, "A"); err != nil {
		check("background", false)
	}
	check("foreground+background restores layer", obj.Layer == before)

	// 删除后索引与存储均为空
	err = grid.RemoveObject(ctx, "A")
	objects, _ := store.PlacedObjects(ctx)
	check("remove A", err == nil && grid.OccupiedCellCount() == 0 && len(objects) == 0)

	if failed {
		fmt.Println("verify_placement: FAILED")
		os.Exit(1)
	}
	fmt.Println("verify_placement: all checks passed")
}
