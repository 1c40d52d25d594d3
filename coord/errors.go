package coord

import "github.com/ceyewan/genesis/xerrors"

var (
	// ErrAlreadyClosed 组件已关闭，无法继续使用。
	ErrAlreadyClosed = xerrors.New("coord: already closed")

	// ErrInvalidArgument 调用参数不满足前置条件（空路径、非正 TTL 等）。
	ErrInvalidArgument = xerrors.New("coord: invalid argument")

	// ErrStoreUnavailable 底层 Etcd 存储在重试预算内仍不可达。
	ErrStoreUnavailable = xerrors.New("coord: store unavailable")

	// ErrInterrupted 阻塞调用在达成结果前超时或被上下文取消。
	ErrInterrupted = xerrors.New("coord: interrupted")

	// ErrIllegalState 组件当前状态不允许该操作（重复 start、未 start 即 wait 等）。
	ErrIllegalState = xerrors.New("coord: illegal state")
)
