package models

import "errors"

var (
	// ErrSubmissionNotFound 提交记录不存在
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrInvalidSubmissionStatus 无效的投递状态
	ErrInvalidSubmissionStatus = errors.New("invalid submission status")
)
