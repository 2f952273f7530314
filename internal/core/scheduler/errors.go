package scheduler

import "errors"

// ErrStopped 调度器已停止
var ErrStopped = errors.New("scheduler stopped")
