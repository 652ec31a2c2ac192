package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"easypro/backend/config"
)

var (
	ErrTooManyFiles     = errors.New("附件数量超过上限")
	ErrFileTooLarge     = errors.New("附件大小超过上限")
	ErrExtNotAllowed    = errors.New("附件格式不支持")
	ErrInvalidObjectKey = errors.New("附件路径非法")
)

// 订单与提交附件允许的扩展名
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".odt":  true,
	".rtf":  true,
	".txt":  true,
	".ppt":  true,
	".pptx": true,
	".xls":  true,
	".xlsx": true,
	".zip":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Storage 附件存储接口
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredFile 已保存附件：存储路径 + 原始文件名
type StoredFile struct {
	Path string
	Name string
}

// Limits 单次上传限制
type Limits struct {
	MaxSize  int64
	MaxFiles int
}

// New 按配置选择存储驱动
func New(cfg *config.UploadConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "oss":
		return NewOSSStorage(&cfg.OSS)
	case "local", "":
		logger.Info("附件使用本地存储", zap.String("dir", cfg.Dir))
		return NewLocalStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("未知存储驱动: %s", cfg.Driver)
	}
}

// SaveMultipart 校验并保存一组 multipart 附件
// 任一文件失败时删除本批已保存的文件
func SaveMultipart(ctx context.Context, st Storage, prefix string, files []*multipart.FileHeader, limits Limits) ([]StoredFile, error) {
	if limits.MaxFiles > 0 && len(files) > limits.MaxFiles {
		return nil, fmt.Errorf("%w: 最多 %d 个", ErrTooManyFiles, limits.MaxFiles)
	}

	for _, fh := range files {
		if limits.MaxSize > 0 && fh.Size > limits.MaxSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
			return nil, fmt.Errorf("%w: %s", ErrExtNotAllowed, fh.Filename)
		}
	}

	saved := make([]StoredFile, 0, len(files))
	rollback := func() {
		for _, f := range saved {
			_ = st.Delete(ctx, f.Path)
		}
	}

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			rollback()
			return nil, err
		}
		p, err := st.Save(ctx, ObjectKey(prefix, fh.Filename), src)
		src.Close()
		if err != nil {
			rollback()
			return nil, err
		}
		saved = append(saved, StoredFile{Path: p, Name: filepath.Base(fh.Filename)})
	}
	return saved, nil
}

// ObjectKey 生成 prefix/yyyy/mm/<uuid><ext> 形式的存储键
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	now := time.Now().UTC()
	return path.Join(prefix, now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}

// Split 拆分为路径与文件名两个数组，对应数据库中的 file_paths / file_names
func Split(files []StoredFile) (paths, names []string) {
	for _, f := range files {
		paths = append(paths, f.Path)
		names = append(names, f.Name)
	}
	return paths, names
}

// cleanKey 拒绝绝对路径与 .. 逃逸
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." || strings.HasPrefix(k, "..") {
		return "", ErrInvalidObjectKey
	}
	return k, nil
}
