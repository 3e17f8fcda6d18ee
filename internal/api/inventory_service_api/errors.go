package inventory_service_api

import (
	"context"
	"errors"
	"strconv"

	"github.com/barals/TheBusBookingCompany/internal/domain"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "inventory.busbooking"

var codeByKind = map[domain.Kind]codes.Code{
	domain.KindNotFound:             codes.NotFound,
	domain.KindInvalidArgument:      codes.InvalidArgument,
	domain.KindInsufficientCapacity: codes.FailedPrecondition,
	domain.KindOverCancellation:     codes.FailedPrecondition,
	domain.KindCapacityViolation:    codes.Internal,
	domain.KindContentionTimeout:    codes.Unavailable,
	domain.KindPersistenceFailure:   codes.Internal,
}

// toStatus attaches the domain kind as an ErrorInfo reason so clients can
// tell INSUFFICIENT_CAPACITY from OVER_CANCELLATION without parsing text.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	kind := domain.KindOf(err)
	code, ok := codeByKind[kind]
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(code, err.Error())
	withInfo, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(kind),
		Domain: errorDomain,
		Metadata: map[string]string{
			"retryable": strconv.FormatBool(domain.IsRetryable(err)),
		},
	})
	if detailErr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// KindFromStatus recovers the domain kind carried by a status built by toStatus.
func KindFromStatus(err error) (domain.Kind, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return domain.Kind(info.GetReason()), true
		}
	}
	return "", false
}
