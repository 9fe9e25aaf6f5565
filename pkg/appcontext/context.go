package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	batchIdKeyId contextId = iota
	jobNameKeyId
	querySeqKeyId
	requestIdKeyId
)

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func WithBatchId(ctx context.Context, batchId string) context.Context {
	return context.WithValue(ctx, batchIdKeyId, batchId)
}

func WithJobName(ctx context.Context, jobName string) context.Context {
	return context.WithValue(ctx, jobNameKeyId, jobName)
}

func WithQuerySeq(ctx context.Context, seq int) context.Context {
	return context.WithValue(ctx, querySeqKeyId, seq)
}

func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestId, _ := ctx.Value(requestIdKeyId).(string)
	return requestId
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxBatchId, ok := ctx.Value(batchIdKeyId).(string); ok && ctxBatchId != "" {
		result = result.WithField("batch", ctxBatchId)
	}

	if ctxJobName, ok := ctx.Value(jobNameKeyId).(string); ok && ctxJobName != "" {
		result = result.WithField("job", ctxJobName)
	}

	if ctxQuerySeq, ok := ctx.Value(querySeqKeyId).(int); ok && ctxQuerySeq != 0 {
		result = result.WithField("query_seq", ctxQuerySeq)
	}

	if ctxRequestId, ok := ctx.Value(requestIdKeyId).(string); ok && ctxRequestId != "" {
		result = result.WithField("request_id", ctxRequestId)
	}

	return result
}
