// Package rpc serves the appointment read operations over gRPC. Messages
// are google.protobuf.Struct values carrying the same JSON documents the
// REST API returns.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/policy"
	"clinic-booking-api/internal/service"
)

const (
	ServiceName = "clinic.v1.ClinicService"

	MethodAvailableSlots   = "/" + ServiceName + "/AvailableSlots"
	MethodListAppointments = "/" + ServiceName + "/ListAppointments"
	MethodGetAppointment   = "/" + ServiceName + "/GetAppointment"
)

type ClinicServer interface {
	AvailableSlots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAppointments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rpcCall func(ClinicServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call rpcCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ClinicServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ClinicServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClinicServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AvailableSlots", Handler: unary(MethodAvailableSlots, ClinicServer.AvailableSlots)},
		{MethodName: "ListAppointments", Handler: unary(MethodListAppointments, ClinicServer.ListAppointments)},
		{MethodName: "GetAppointment", Handler: unary(MethodGetAppointment, ClinicServer.GetAppointment)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinic/v1/clinic.proto",
}

// Clinic implements ClinicServer on top of the appointment service.
type Clinic struct {
	appts *service.Appointments
}

func NewClinic(appts *service.Appointments) *Clinic {
	return &Clinic{appts: appts}
}

func actor(ctx context.Context) policy.Actor {
	c, ok := middleware.ClaimsFrom(ctx)
	if !ok {
		return policy.Actor{}
	}
	return policy.Actor{UserID: c.UserID, Role: c.Role}
}

func (c *Clinic) AvailableSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s, err := c.appts.AvailableSlots(ctx, field(req, "date"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(s)
}

func (c *Clinic) ListAppointments(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := c.appts.List(ctx, actor(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"appointments": list})
}

func (c *Clinic) GetAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	a, err := c.appts.Get(ctx, actor(ctx), field(req, "id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(a)
}
