package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/service"
)

// Client is a typed ClinicService client.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// WithToken attaches a bearer token to outgoing calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func (c *Client) call(ctx context.Context, method string, req map[string]any, dst any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return fromStruct(out, dst)
}

func (c *Client) AvailableSlots(ctx context.Context, date string) (*service.AvailableSlots, error) {
	var out service.AvailableSlots
	if err := c.call(ctx, MethodAvailableSlots, map[string]any{"date": date}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	var out struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := c.call(ctx, MethodListAppointments, map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	var out model.Appointment
	if err := c.call(ctx, MethodGetAppointment, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
