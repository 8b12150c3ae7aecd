package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"clinic-booking-api/internal/model"
)

const appointmentSelect = `
SELECT a.id, a.patient_id, a.service, a.appointment_date, a.appointment_time, a.status,
       a.notes, a.symptoms, a.doctor_assigned, a.estimated_cost::text, a.duration_minutes,
       a.created_at, a.updated_at,
       u.id, u.name, u.email, u.role, u.phone, u.date_of_birth, u.address, u.is_active,
       u.created_at, u.updated_at
FROM appointments a
JOIN users u ON u.id = a.patient_id`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	p := &model.PublicUser{}
	var (
		date time.Time
		cost *string
		dob  *time.Time
	)
	err := row.Scan(
		&a.ID, &a.PatientID, &a.Service, &date, &a.AppointmentTime, &a.Status,
		&a.Notes, &a.Symptoms, &a.DoctorAssigned, &cost, &a.DurationMinutes,
		&a.CreatedAt, &a.UpdatedAt,
		&p.ID, &p.Name, &p.Email, &p.Role, &p.Phone, &dob, &p.Address, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.AppointmentDate = model.NewDate(date)
	if cost != nil {
		d, err := decimal.NewFromString(*cost)
		if err != nil {
			return nil, err
		}
		a.EstimatedCost = &d
	}
	if dob != nil {
		d := model.NewDate(*dob)
		p.DateOfBirth = &d
	}
	a.Patient = p
	return a, nil
}

func costArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// lockSlot serializes every check-and-write on one (date, time) pair until
// the transaction ends.
func lockSlot(ctx context.Context, tx pgx.Tx, date model.Date, at string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "slot:"+date.String()+" "+at)
	return err
}

func slotConfirmed(ctx context.Context, tx pgx.Tx, date model.Date, at, excludeID string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE appointment_date = $1 AND appointment_time = $2
			  AND status = 'confirmed' AND id::text <> $3)`,
		date.Time, at, excludeID,
	).Scan(&exists)
	return exists, err
}

// CreateAppointment inserts a unless its slot already holds a confirmed
// appointment. The check and the insert run under one slot lock.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockSlot(ctx, tx, a.AppointmentDate, a.AppointmentTime); err != nil {
		return err
	}
	taken, err := slotConfirmed(ctx, tx, a.AppointmentDate, a.AppointmentTime, a.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (id, patient_id, service, appointment_date, appointment_time, status,
		                           notes, symptoms, doctor_assigned, estimated_cost, duration_minutes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::numeric,$11)
		 RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.Service, a.AppointmentDate.Time, a.AppointmentTime, a.Status,
		a.Notes, a.Symptoms, a.DoctorAssigned, costArg(a.EstimatedCost), a.DurationMinutes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if c, ok := uniqueViolation(err); ok && c == confirmedSlotIndex {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListAppointments returns appointments ordered by date then time.
// An empty patientID lists every patient's appointments.
func (s *Store) ListAppointments(ctx context.Context, patientID string) ([]model.Appointment, error) {
	if patientID == "" {
		return s.queryAppointments(ctx, ` ORDER BY a.appointment_date, a.appointment_time, a.created_at`)
	}
	return s.queryAppointments(ctx,
		` WHERE a.patient_id = $1 ORDER BY a.appointment_date, a.appointment_time, a.created_at`, patientID)
}

// AppointmentsOn returns every appointment on date regardless of status.
func (s *Store) AppointmentsOn(ctx context.Context, date model.Date) ([]model.Appointment, error) {
	return s.queryAppointments(ctx,
		` WHERE a.appointment_date = $1 ORDER BY a.appointment_time, a.created_at`, date.Time)
}

func (s *Store) queryAppointments(ctx context.Context, tail string, args ...any) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, appointmentSelect+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
}

// UpdateAppointment merges p into the stored row. When the result is a
// confirmed appointment the slot is re-checked under the slot lock.
func (s *Store) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAppointment(tx.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id))
	if err != nil {
		return nil, err
	}
	p.Apply(a)

	if a.Status == model.StatusConfirmed {
		if err := lockSlot(ctx, tx, a.AppointmentDate, a.AppointmentTime); err != nil {
			return nil, err
		}
		taken, err := slotConfirmed(ctx, tx, a.AppointmentDate, a.AppointmentTime, a.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrSlotTaken
		}
	}

	err = tx.QueryRow(ctx,
		`UPDATE appointments
		 SET service=$2, appointment_date=$3, appointment_time=$4, status=$5, notes=$6, symptoms=$7,
		     doctor_assigned=$8, estimated_cost=$9::numeric, duration_minutes=$10, updated_at=NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		a.ID, a.Service, a.AppointmentDate.Time, a.AppointmentTime, a.Status, a.Notes, a.Symptoms,
		a.DoctorAssigned, costArg(a.EstimatedCost), a.DurationMinutes,
	).Scan(&a.UpdatedAt)
	if c, ok := uniqueViolation(err); ok && c == confirmedSlotIndex {
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, err
	}
	return a, tx.Commit(ctx)
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmedTimes returns the times already confirmed on date.
func (s *Store) ConfirmedTimes(ctx context.Context, date model.Date) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT appointment_time FROM appointments
		 WHERE appointment_date = $1 AND status = 'confirmed'`, date.Time)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
