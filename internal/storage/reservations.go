package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"aguin/internal/core"
	"aguin/internal/dashboard"
	"aguin/internal/log"
)

// Clients

const clientColumns = "id, full_name, phone, email, registered_at"

func scanClient(row interface{ Scan(...any) error }) (core.Client, error) {
	var c core.Client
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email, &c.RegisteredAt)
	return c, err
}

func (r *Repository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY full_name, id")
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetClient(ctx context.Context, id int64) (core.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx, r.rebind("SELECT "+clientColumns+" FROM clients WHERE id = ?"), id))
	if err != nil {
		return core.Client{}, fmt.Errorf("get client (id=%d): %w", id, classify(err))
	}
	return c, nil
}

func (r *Repository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	return r.createClient(ctx, r.db, c)
}

func (r *Repository) createClient(ctx context.Context, q execer, c core.Client) (core.Client, error) {
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = r.now().UTC()
	}
	id, err := r.insert(ctx, q,
		"INSERT INTO clients (full_name, phone, email, registered_at) VALUES (?, ?, ?, ?)",
		c.FullName, c.Phone, c.Email, c.RegisteredAt)
	if err != nil {
		return core.Client{}, fmt.Errorf("create client: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *Repository) UpdateClient(ctx context.Context, c core.Client) error {
	err := mustAffect(r.exec(ctx, r.db,
		"UPDATE clients SET full_name = ?, phone = ?, email = ? WHERE id = ?",
		c.FullName, c.Phone, c.Email, c.ID))
	if err != nil {
		return fmt.Errorf("update client (id=%d): %w", c.ID, err)
	}
	return nil
}

func (r *Repository) DeleteClient(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM clients WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete client (id=%d): %w", id, err)
	}
	return nil
}

// Reservations

const reservationColumns = "id, client_id, comments, status, requested_date"

// newest first, undated last on both dialects
const reservationOrder = " ORDER BY requested_date IS NULL, requested_date DESC, id DESC"

func scanReservation(row interface{ Scan(...any) error }) (core.Reservation, error) {
	var (
		res    core.Reservation
		status string
		date   dateColumn
	)
	if err := row.Scan(&res.ID, &res.ClientID, &res.Comments, &status, &date); err != nil {
		return core.Reservation{}, err
	}
	res.Status = core.ReservationStatus(status)
	res.RequestedDate = date.Date
	return res, nil
}

func (r *Repository) ListReservations(ctx context.Context) ([]core.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+reservationColumns+" FROM reservations"+reservationOrder)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []core.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repository) GetReservation(ctx context.Context, id int64) (core.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		r.rebind("SELECT "+reservationColumns+" FROM reservations WHERE id = ?"), id))
	if err != nil {
		return core.Reservation{}, fmt.Errorf("get reservation (id=%d): %w", id, classify(err))
	}
	return res, nil
}

func (r *Repository) CreateReservation(ctx context.Context, res core.Reservation) (core.Reservation, error) {
	return r.createReservation(ctx, r.db, res)
}

func (r *Repository) createReservation(ctx context.Context, q execer, res core.Reservation) (core.Reservation, error) {
	res.Status = core.NormalizeStatus(string(res.Status))
	id, err := r.insert(ctx, q,
		"INSERT INTO reservations (client_id, comments, status, requested_date) VALUES (?, ?, ?, ?)",
		res.ClientID, res.Comments, string(res.Status), dateValue(res.RequestedDate))
	if err != nil {
		return core.Reservation{}, fmt.Errorf("create reservation (client=%d): %w", res.ClientID, err)
	}
	res.ID = id
	return res, nil
}

func (r *Repository) UpdateReservation(ctx context.Context, res core.Reservation) error {
	res.Status = core.NormalizeStatus(string(res.Status))
	err := mustAffect(r.exec(ctx, r.db,
		"UPDATE reservations SET client_id = ?, comments = ?, status = ?, requested_date = ? WHERE id = ?",
		res.ClientID, res.Comments, string(res.Status), dateValue(res.RequestedDate), res.ID))
	if err != nil {
		return fmt.Errorf("update reservation (id=%d): %w", res.ID, err)
	}
	return nil
}

func (r *Repository) SetReservationStatus(ctx context.Context, id int64, status core.ReservationStatus) error {
	return r.setStatus(ctx, r.db, id, status)
}

func (r *Repository) setStatus(ctx context.Context, q execer, id int64, status core.ReservationStatus) error {
	err := mustAffect(r.exec(ctx, q, "UPDATE reservations SET status = ? WHERE id = ?",
		string(core.NormalizeStatus(string(status))), id))
	if err != nil {
		return fmt.Errorf("set reservation status (id=%d, status=%s): %w", id, status, err)
	}
	return nil
}

func (r *Repository) DeleteReservation(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM reservations WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete reservation (id=%d): %w", id, err)
	}
	return nil
}

func (r *Repository) Book(ctx context.Context, c core.Client, res core.Reservation) (core.Client, core.Reservation, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if c, err = r.createClient(ctx, tx, c); err != nil {
			return err
		}
		res.ClientID = c.ID
		res, err = r.createReservation(ctx, tx, res)
		return err
	})
	if err != nil {
		return core.Client{}, core.Reservation{}, fmt.Errorf("book reservation: %w", err)
	}
	r.logger.InfoContext(ctx, "Reservation booked",
		log.FieldReservationID, res.ID,
		log.FieldEntityID, c.ID)
	return c, res, nil
}

const dashboardQuery = `
SELECT r.id, r.comments, r.status, r.requested_date, c.full_name,
       (SELECT MIN(p.id) FROM payments p WHERE p.reservation_id = r.id)
FROM reservations r
LEFT JOIN clients c ON c.id = r.client_id
ORDER BY r.requested_date IS NULL, r.requested_date DESC, r.id DESC`

func (r *Repository) DashboardRows(ctx context.Context) (out []dashboard.Reservation, err error) {
	ctx, span := r.startSpan(ctx, "dashboard_rows")
	defer func() {
		span.SetAttributes(attribute.Int("rows", len(out)))
		endSpan(span, err)
	}()

	rows, err := r.db.QueryContext(ctx, dashboardQuery)
	if err != nil {
		return nil, fmt.Errorf("query dashboard rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row       dashboard.Reservation
			date      rawDateColumn
			client    sql.NullString
			paymentID sql.NullInt64
		)
		if err := rows.Scan(&row.ID, &row.Comments, &row.Status, &date, &client, &paymentID); err != nil {
			return nil, fmt.Errorf("scan dashboard row: %w", err)
		}
		row.RequestedDate = string(date)
		if client.Valid {
			row.Client = &dashboard.ClientRef{FullName: client.String}
		}
		if paymentID.Valid {
			row.Payment = dashboard.PaymentOf(paymentID.Int64)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Payments

const paymentColumns = "id, reservation_id, total, registered_at"

func scanPayment(row interface{ Scan(...any) error }) (core.Payment, error) {
	var p core.Payment
	err := row.Scan(&p.ID, &p.ReservationID, &p.Total, &p.RegisteredAt)
	return p, err
}

func (r *Repository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+paymentColumns+" FROM payments ORDER BY registered_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, r.rebind("SELECT "+paymentColumns+" FROM payments WHERE id = ?"), id))
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment (id=%d): %w", id, classify(err))
	}
	return p, nil
}

func (r *Repository) RecordPayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = r.now().UTC()
	}
	p.Total = p.Total.Round(2)

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.setStatus(ctx, tx, p.ReservationID, core.StatusPaid); err != nil {
			return err
		}
		id, err := r.insert(ctx, tx,
			"INSERT INTO payments (reservation_id, total, registered_at) VALUES (?, ?, ?)",
			p.ReservationID, p.Total.StringFixed(2), p.RegisteredAt)
		if err != nil {
			return err
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return core.Payment{}, fmt.Errorf("record payment (reservation=%d): %w", p.ReservationID, err)
	}

	r.logger.InfoContext(ctx, "Payment recorded",
		log.FieldPaymentID, p.ID,
		log.FieldReservationID, p.ReservationID,
		log.FieldAmount, p.Total.StringFixed(2))
	return p, nil
}

func (r *Repository) DeletePayment(ctx context.Context, id int64) error {
	if err := mustAffect(r.exec(ctx, r.db, "DELETE FROM payments WHERE id = ?", id)); err != nil {
		return fmt.Errorf("delete payment (id=%d): %w", id, err)
	}
	return nil
}
