package utils

// 水族箱网格参数常量
// 世界以格为单位定义，每格固定 64 像素，世界像素尺寸 = 格数 × 64
const (
	TileSize = 64.0 // 每格边长（像素）
)

// TileCoord 网格坐标，单位为格
type TileCoord struct {
	X int
	Y int
}

// FootprintCells 返回锚定在 (x, y)、边长为 size 的正方形占地覆盖的所有格子
// 返回顺序为按行扫描（先行后列），size <= 0 时返回空切片
func FootprintCells(x, y, size int) []TileCoord {
	if size <= 0 {
		return nil
	}
	cells := make([]TileCoord, 0, size*size)
	for row := y; row < y+size; row++ {
		for col := x; col < x+size; col++ {
			cells = append(cells, TileCoord{X: col, Y: row})
		}
	}
	return cells
}

// IsFootprintInBounds 检查占地是否完整落在世界范围内
// 判定条件: x >= 0 且 y >= 0 且 x+size <= tilesH 且 y+size <= tilesV
func IsFootprintInBounds(x, y, size, tilesHorizontal, tilesVertical int) bool {
	return x >= 0 && y >= 0 && x+size <= tilesHorizontal && y+size <= tilesVertical
}

// WorldPixelSize 返回世界的像素尺寸
func WorldPixelSize(tilesHorizontal, tilesVertical int) (width, height float64) {
	return float64(tilesHorizontal) * TileSize, float64(tilesVertical) * TileSize
}

// ScreenToTileCoords 将屏幕像素坐标转换为网格坐标
// 参数:
//   - screenX, screenY: 屏幕坐标（如鼠标位置）
//   - cameraX, cameraY: 摄像机偏移（世界像素坐标）
//   - zoom: 当前缩放系数
//   - tilesHorizontal, tilesVertical: 世界格数
//
// 返回:
//   - col, row: 网格坐标
//   - isValid: 是否落在世界范围内（zoom <= 0 时视为无效）
func ScreenToTileCoords(screenX, screenY int, cameraX, cameraY, zoom float64, tilesHorizontal, tilesVertical int) (col, row int, isValid bool) {
	if zoom <= 0 {
		return 0, 0, false
	}

	// 屏幕坐标 → 世界像素坐标 → 格坐标
	worldX := float64(screenX)/zoom + cameraX
	worldY := float64(screenY)/zoom + cameraY

	if worldX < 0 || worldY < 0 {
		return 0, 0, false
	}

	col = int(worldX / TileSize)
	row = int(worldY / TileSize)

	if col >= tilesHorizontal || row >= tilesVertical {
		return 0, 0, false
	}
	return col, row, true
}

// TileToScreenCoords 将网格坐标转换为屏幕像素坐标（格子左上角）
func TileToScreenCoords(col, row int, cameraX, cameraY, zoom float64) (screenX, screenY float64) {
	screenX = (float64(col)*TileSize - cameraX) * zoom
	screenY = (float64(row)*TileSize - cameraY) * zoom
	return screenX, screenY
}
