//go:build unix

package handlers

import (
	"fmt"
	"syscall"
)

// diskAvailable возвращает свободное для пользователя место в директории (байты).
func diskAvailable(path string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("ошибка statfs %s: %w", path, err)
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
