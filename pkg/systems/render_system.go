package systems

import (
	"hash/fnv"
	"image"
	"image/color"
	"log"
	"os"
	"sort"

	"github.com/gonewx/aquarium/pkg/components"
	"github.com/gonewx/aquarium/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// 水体背景色
var waterColor = color.RGBA{R: 22, G: 82, B: 126, A: 255}

// RenderSystem 绘制水族箱：背景、按层级排序的装饰物、鱼群、选中高亮
//
// 世界坐标到屏幕坐标的换算统一为 (world - camera) * zoom。
// 精灵按需加载并缓存；加载失败时用 URL 散列出的纯色占位图代替，
// 渲染永远不会因缺资源而中断。
type RenderSystem struct {
	grid     *ObjectGridSystem
	viewport *ViewportSystem
	fish     *FishSystem

	// spriteCache 精灵缓存: SpriteURL -> 图像
	spriteCache map[string]*ebiten.Image
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(grid *ObjectGridSystem, viewport *ViewportSystem, fish *FishSystem) *RenderSystem {
	return &RenderSystem{
		grid:        grid,
		viewport:    viewport,
		fish:        fish,
		spriteCache: make(map[string]*ebiten.Image),
	}
}

// Draw 绘制一帧
func (rs *RenderSystem) Draw(screen *ebiten.Image) {
	screen.Fill(waterColor)

	cameraX, cameraY := rs.viewport.Camera()
	zoom := rs.viewport.CurrentZoomLevel()
	if zoom <= 0 {
		return
	}

	rs.drawObjects(screen, cameraX, cameraY, zoom)
	rs.drawFish(screen, cameraX, cameraY, zoom)
	rs.drawSelection(screen, cameraX, cameraY, zoom)
}

// drawObjects 按层级从后到前绘制装饰物
func (rs *RenderSystem) drawObjects(screen *ebiten.Image, cameraX, cameraY, zoom float64) {
	objects := make([]*components.PlacedObject, 0, len(rs.grid.Objects()))
	for _, obj := range rs.grid.Objects() {
		objects = append(objects, obj)
	}
	// 层级小的先画（在后面），同层按 id 稳定排序
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].Layer != objects[j].Layer {
			return objects[i].Layer < objects[j].Layer
		}
		return objects[i].ObjectID < objects[j].ObjectID
	})

	for _, obj := range objects {
		img := rs.sprite(obj.SpriteURL)
		screenX, screenY := utils.TileToScreenCoords(obj.GridX, obj.GridY, cameraX, cameraY, zoom)

		// 把精灵缩放到占地像素尺寸再套缩放
		targetSize := float64(obj.Size) * utils.TileSize * zoom
		bounds := img.Bounds()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(targetSize/float64(bounds.Dx()), targetSize/float64(bounds.Dy()))
		op.GeoM.Translate(screenX, screenY)
		screen.DrawImage(img, op)
	}
}

// drawFish 绘制鱼群
func (rs *RenderSystem) drawFish(screen *ebiten.Image, cameraX, cameraY, zoom float64) {
	if rs.fish == nil {
		return
	}
	for _, f := range rs.fish.Fish() {
		img := rs.sprite(f.SpriteURL)
		bounds := img.Bounds()

		// 鱼占一格大小
		targetSize := utils.TileSize * zoom
		op := &ebiten.DrawImageOptions{}
		scaleX := targetSize / float64(bounds.Dx())
		if f.FacingLeft {
			scaleX = -scaleX
		}
		op.GeoM.Scale(scaleX, targetSize/float64(bounds.Dy()))
		if f.FacingLeft {
			op.GeoM.Translate(targetSize, 0)
		}
		op.GeoM.Translate((f.X-cameraX)*zoom, (f.Y-cameraY)*zoom)
		screen.DrawImage(img, op)
	}
}

// drawSelection 给选中的装饰物画高亮边框
func (rs *RenderSystem) drawSelection(screen *ebiten.Image, cameraX, cameraY, zoom float64) {
	selected := rs.grid.SelectedObjectID()
	if selected == "" {
		return
	}
	obj, ok := rs.grid.Object(selected)
	if !ok {
		return
	}

	screenX, screenY := utils.TileToScreenCoords(obj.GridX, obj.GridY, cameraX, cameraY, zoom)
	side := float32(float64(obj.Size) * utils.TileSize * zoom)
	vector.StrokeRect(screen, float32(screenX), float32(screenY), side, side,
		2, color.RGBA{R: 255, G: 255, B: 120, A: 220}, true)
}

// sprite 返回指定 URL 的精灵图像，带缓存
// 文件读取失败时回退到纯色占位图
func (rs *RenderSystem) sprite(url string) *ebiten.Image {
	if img, ok := rs.spriteCache[url]; ok {
		return img
	}
	img := loadSpriteImage(url)
	rs.spriteCache[url] = img
	return img
}

// loadSpriteImage 从磁盘加载精灵，失败时生成占位图
func loadSpriteImage(url string) *ebiten.Image {
	f, err := os.Open(url)
	if err != nil {
		return placeholderSprite(url)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		log.Printf("[Render] Warning: failed to decode sprite %s: %v (using placeholder)", url, err)
		return placeholderSprite(url)
	}
	return ebiten.NewImageFromImage(decoded)
}

// placeholderSprite 由 URL 散列生成稳定的纯色占位图
func placeholderSprite(url string) *ebiten.Image {
	h := fnv.New32a()
	h.Write([]byte(url))
	sum := h.Sum32()

	img := ebiten.NewImage(int(utils.TileSize), int(utils.TileSize))
	img.Fill(color.RGBA{
		R: uint8(80 + sum%120),
		G: uint8(80 + (sum>>8)%120),
		B: uint8(80 + (sum>>16)%120),
		A: 255,
	})
	return img
}
