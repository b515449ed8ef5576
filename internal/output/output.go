// Package output 输出渲染结果。
package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// FileMode 新建输出文件的权限
const FileMode fs.FileMode = 0o644

// Write 将 text 加一个换行写入 path，path 为空时写入 stdout。
//
// 文件通过临时文件 + rename 原子替换，已存在的文件保留原权限。
func Write(path, text string, stdout io.Writer) error {
	r := strings.NewReader(text + "\n")

	if path == "" {
		if _, err := io.Copy(stdout, r); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}

	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	// 临时文件以 0600 创建
	if created {
		if err := os.Chmod(path, FileMode); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}

	return nil
}
