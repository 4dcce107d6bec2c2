package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/types"

	"github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type emailHygieneService interface {
	ListInvalidEmails(ctx context.Context) (*dto.InvalidEmailList, error)
	FixEmail(ctx context.Context, req *types.FixEmailRequest) (*dto.FixEmailResult, error)
}

type AdminServer struct {
	hygieneService emailHygieneService
}

func NewAdminServer(hygieneService emailHygieneService) *AdminServer {
	return &AdminServer{hygieneService: hygieneService}
}

func (s *AdminServer) ListInvalidEmails(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res, err := s.hygieneService.ListInvalidEmails(ctx)
	if err != nil {
		logrus.WithError(err).Error("Listing invalid emails failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return toStruct(res)
}

func (s *AdminServer) FixEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := fixEmailRequestFromStruct(in)
	if err != nil {
		logrus.WithError(err).Debug("Failed to decode fix email request (grpc)")
		return nil, status.Error(codes.InvalidArgument, "invalid request body")
	}

	fields := logrus.Fields{"table": req.TargetTable(), "id": uint64(req.UserID)}
	res, err := s.hygieneService.FixEmail(ctx, req)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			logrus.WithFields(fields).Debug("Fix email validation failed (grpc)")
			return nil, invalidArgument(verr)
		}
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			logrus.WithFields(fields).Warn("Fix email rejected: email already in use (grpc)")
			return nil, status.Error(codes.AlreadyExists, conflict.Error())
		}
		if errors.Is(err, service.ErrRecordNotFound) {
			logrus.WithFields(fields).Warn("Fix email failed: record not found (grpc)")
			return nil, status.Error(codes.NotFound, "record not found")
		}
		logrus.WithError(err).WithFields(fields).Error("Fix email failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return toStruct(res)
}

// invalidArgument carries every field detail as a BadRequest so gRPC callers
// see the same details as HTTP callers.
func invalidArgument(verr *types.ValidationError) error {
	st := status.New(codes.InvalidArgument, verr.Error())
	br := &errdetails.BadRequest{}
	for _, d := range verr.Details {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       d.Field,
			Description: d.Code + ": " + d.Message,
		})
	}
	withDetails, err := st.WithDetails(br)
	if err != nil {
		logrus.WithError(err).Warn("Failed to attach validation details (grpc)")
		return st.Err()
	}
	return withDetails.Err()
}

func fixEmailRequestFromStruct(in *structpb.Struct) (*types.FixEmailRequest, error) {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return nil, err
	}
	var req types.FixEmailRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode grpc response")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		logrus.WithError(err).Error("Failed to encode grpc response")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
