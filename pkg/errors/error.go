package errors

import (
	"errors"
	"fmt"
)

type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

// 实现 error 接口
func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// Is 错误码相同即视为同一类错误，便于 errors.Is 匹配哨兵错误
func (e *CodeMsg) Is(target error) bool {
	var t *CodeMsg
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New 构造函数
func New(code int, msg string) error {
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap 带上原始错误
func Wrap(code int, msg string, err error) error {
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

// Code 取出错误码，非 CodeMsg 返回 0
func Code(err error) int {
	var cm *CodeMsg
	if errors.As(err, &cm) {
		return cm.Code
	}
	return 0
}
