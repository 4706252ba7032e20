package systems

import (
	"fmt"
	"math/rand"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/utils"
)

// 鱼游动速度范围（像素/秒）
const (
	fishMinSpeed = 20.0
	fishMaxSpeed = 70.0
)

// 内置鱼种，生成鱼群时轮流取用
var fishSpecies = []string{"neon", "guppy", "angelfish", "tetra", "goldfish"}

// FishSystem 管理鱼群的生成与游动
//
// 鱼在世界范围内匀速漂游，碰到世界边缘反弹。只做装饰性漂移，
// 没有行为 AI。
type FishSystem struct {
	fish []*components.Fish

	worldWidth  float64 // 世界宽度（像素）
	worldHeight float64 // 世界高度（像素）

	rng *rand.Rand
}

// NewFishSystem 创建鱼群系统并生成初始鱼群
//
// 参数:
//   - count: 初始鱼数量
//   - tilesHorizontal, tilesVertical: 世界尺寸（格）
//   - rng: 随机数源，显式注入便于测试复现
func NewFishSystem(count, tilesHorizontal, tilesVertical int, rng *rand.Rand) *FishSystem {
	worldW, worldH := utils.WorldPixelSize(tilesHorizontal, tilesVertical)
	fs := &FishSystem{
		worldWidth:  worldW,
		worldHeight: worldH,
		rng:         rng,
	}
	for i := 0; i < count; i++ {
		fs.spawn(i)
	}
	return fs
}

// spawn 生成一条鱼，位置与速度随机
func (fs *FishSystem) spawn(index int) {
	speed := fishMinSpeed + fs.rng.Float64()*(fishMaxSpeed-fishMinSpeed)
	vx := speed
	if fs.rng.Intn(2) == 0 {
		vx = -speed
	}
	species := fishSpecies[index%len(fishSpecies)]
	f := &components.Fish{
		ID:         fmt.Sprintf("fish-%d", index),
		Species:    species,
		SpriteURL:  fmt.Sprintf("sprites/fish/%s.png", species),
		X:          fs.rng.Float64() * fs.worldWidth,
		Y:          fs.rng.Float64() * fs.worldHeight,
		VX:         vx,
		VY:         (fs.rng.Float64() - 0.5) * 20,
		FacingLeft: vx < 0,
	}
	fs.fish = append(fs.fish, f)
}

// Update 推进鱼群游动，dt 为帧间隔（秒）
func (fs *FishSystem) Update(dt float64) {
	for _, f := range fs.fish {
		f.X += f.VX * dt
		f.Y += f.VY * dt

		// 碰到世界边缘反弹
		if f.X < 0 {
			f.X = 0
			f.VX = -f.VX
		} else if f.X > fs.worldWidth {
			f.X = fs.worldWidth
			f.VX = -f.VX
		}
		if f.Y < 0 {
			f.Y = 0
			f.VY = -f.VY
		} else if f.Y > fs.worldHeight {
			f.Y = fs.worldHeight
			f.VY = -f.VY
		}

		f.FacingLeft = f.VX < 0
	}
}

// Fish 返回鱼群列表，调用方只读
func (fs *FishSystem) Fish() []*components.Fish {
	return fs.fish
}

// Count 返回当前鱼数量
func (fs *FishSystem) Count() int {
	return len(fs.fish)
}

// SetCount 调整鱼群规模：多退少补
func (fs *FishSystem) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	for len(fs.fish) > count {
		fs.fish = fs.fish[:len(fs.fish)-1]
	}
	for len(fs.fish) < count {
		fs.spawn(len(fs.fish))
	}
}
