package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// 精灵上传校验常量
const (
	// MaxSpriteFileSize 精灵文件大小上限（字节），超过即拒绝
	MaxSpriteFileSize = 2 * 1024 * 1024
)

// ErrInvalidSpriteType 表示精灵文件扩展名不被支持
var ErrInvalidSpriteType = errors.New("unsupported sprite file type")

// ErrSpriteTooLarge 表示精灵文件超过大小上限
var ErrSpriteTooLarge = errors.New("sprite file too large")

// 支持的精灵文件扩展名（小写）
var allowedSpriteExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// ValidateSpriteUpload 校验待上传的精灵文件
//
// 在任何 IO 之前同步执行，拒绝时返回可用 errors.Is 判别的错误。
// 参数:
//   - filename: 原始文件名（用于扩展名检查）
//   - sizeBytes: 文件大小（字节）
//
// 返回:
//   - error: 校验失败时返回 ErrInvalidSpriteType 或 ErrSpriteTooLarge
func ValidateSpriteUpload(filename string, sizeBytes int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedSpriteExtensions[ext] {
		return fmt.Errorf("%w: %s", ErrInvalidSpriteType, ext)
	}
	if sizeBytes > MaxSpriteFileSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrSpriteTooLarge, sizeBytes, int64(MaxSpriteFileSize))
	}
	return nil
}
