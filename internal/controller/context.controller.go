package controller

import (
	"context"
	"strconv"
	"time"
)

type contextKey int

const memberIdCtxKey contextKey = iota

func (c *controller) getMemberIdFromCtx(ctx context.Context) string {
	memberId, ok := ctx.Value(memberIdCtxKey).(string)
	if !ok {
		return ""
	}

	return memberId
}

func (c *controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
