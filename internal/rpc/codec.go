package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"clinic-booking-api/internal/xerrors"
)

// toStruct converts v through its JSON form so field names match REST.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, dst any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %T: %w", dst, err)
	}
	return nil
}

func field(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

var kindCodes = map[xerrors.Kind]codes.Code{
	xerrors.KindValidation:   codes.InvalidArgument,
	xerrors.KindUnauthorized: codes.Unauthenticated,
	xerrors.KindForbidden:    codes.PermissionDenied,
	xerrors.KindNotFound:     codes.NotFound,
	xerrors.KindConflict:     codes.AlreadyExists,
}

func toStatus(err error) error {
	e := xerrors.As(err)
	code, ok := kindCodes[e.Kind]
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, e.Msg)
}
