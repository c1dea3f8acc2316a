package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autotickets/autotickets/internal/domain"
)

// TicketFilter captures listing parameters. A nil CompanyID means the
// caller (admin) sees all tenants.
type TicketFilter struct {
	CompanyID   *string
	Statuses    []domain.TicketStatus
	Urgencies   []domain.UrgencyLevel
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// StatusFields is the complete post-transition state for the columns a
// status change may touch. The service computes it; the repository
// writes it in one atomic row update.
type StatusFields struct {
	Status              domain.TicketStatus
	AwaitingInfoSince   *time.Time
	Solution            string
	SolutionAttachments []domain.Attachment
	ResolvedBy          string
	ResolvedAt          *time.Time
	StatusChangedAt     time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumero(ctx context.Context, companyID string, numero int) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, fields StatusFields) error
	AppendChatMessage(ctx context.Context, id string, msg domain.ChatMessage) error
	Delete(ctx context.Context, companyID, id string) error
	ListExpiredAwaitingInfo(ctx context.Context, deadline time.Time) ([]domain.Ticket, error)
	ResolveTacitly(ctx context.Context, ids []string, solution, resolvedBy string, now time.Time) error
	ListByStatusOlderThan(ctx context.Context, status domain.TicketStatus, cutoff time.Time) ([]domain.Ticket, error)
	MoveStatus(ctx context.Context, ids []string, target domain.TicketStatus, now time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, numero, company_id, ai_id, ai_name, title, description, what_should_happen,
               urgency, attachments, requester_name, status, solution, solution_attachments,
               resolved_by, resolved_at, awaiting_info_since, chat_history,
               created_at, updated_at, status_changed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	attachments, err := jsonArg(ticket.Attachments)
	if err != nil {
		return err
	}
	// numero is sequential per tenant; the unique (company_id, numero)
	// constraint catches the race of two concurrent inserts.
	const query = `
        INSERT INTO tickets (numero, company_id, ai_id, ai_name, title, description, what_should_happen,
                             urgency, attachments, requester_name, status)
        VALUES ((SELECT COALESCE(MAX(numero),0)+1 FROM tickets WHERE company_id=$1),
                $1,$2,$3,$4,$5,$6,$7,$8::jsonb,$9,$10)
        RETURNING id, numero, created_at, updated_at, status_changed_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CompanyID,
		ticket.AIID,
		ticket.AIName,
		ticket.Title,
		ticket.Description,
		ticket.WhatShouldHappen,
		ticket.Urgency,
		attachments,
		ticket.RequesterName,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.Numero, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.StatusChangedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumero(ctx context.Context, companyID string, numero int) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE company_id=$1 AND numero=$2`, ticketColumns)
	return r.fetchSingle(ctx, query, companyID, numero)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		clauses = append(clauses, fmt.Sprintf("company_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Urgencies) > 0 {
		placeholders := make([]string, len(filter.Urgencies))
		for i, urgency := range filter.Urgencies {
			args = append(args, urgency)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("urgency IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, fields StatusFields) error {
	solutionAttachments, err := jsonArg(fields.SolutionAttachments)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET status=$1, awaiting_info_since=$2, solution=$3, solution_attachments=$4::jsonb,
            resolved_by=$5, resolved_at=$6, status_changed_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		fields.Status,
		fields.AwaitingInfoSince,
		fields.Solution,
		solutionAttachments,
		fields.ResolvedBy,
		fields.ResolvedAt,
		fields.StatusChangedAt,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AppendChatMessage pushes one entry onto the chat array inside the
// database, so concurrent appends from both sides interleave without
// losing messages. Read-modify-write of the whole array is never used.
func (r *ticketRepository) AppendChatMessage(ctx context.Context, id string, msg domain.ChatMessage) error {
	entry, err := jsonArg([]domain.ChatMessage{msg})
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET chat_history = chat_history || $1::jsonb, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, entry, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, companyID, id string) error {
	const query = `DELETE FROM tickets WHERE id=$1 AND company_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, companyID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListExpiredAwaitingInfo(ctx context.Context, deadline time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status=$1 AND awaiting_info_since IS NOT NULL AND awaiting_info_since < $2
        ORDER BY awaiting_info_since ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusAwaitingInfo, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ResolveTacitly(ctx context.Context, ids []string, solution, resolvedBy string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `
        UPDATE tickets SET status=$1, awaiting_info_since=NULL, solution=$2, resolved_by=$3,
            resolved_at=$4, status_changed_at=$4, updated_at=NOW()
        WHERE id = ANY($5)`
	_, err := r.pool.Exec(ctx, query, domain.TicketStatusResolved, solution, resolvedBy, now, ids)
	return err
}

func (r *ticketRepository) ListByStatusOlderThan(ctx context.Context, status domain.TicketStatus, cutoff time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status=$1 AND status_changed_at < $2
        ORDER BY status_changed_at ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, status, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// MoveStatus shifts tickets to the target status and refreshes
// status_changed_at, so a freshly moved ticket is not immediately
// eligible for another rule on the same or next tick. Moving into
// AwaitingInfo anchors the tacit-acceptance clock if it is not already
// running; moving anywhere else clears it.
func (r *ticketRepository) MoveStatus(ctx context.Context, ids []string, target domain.TicketStatus, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `
        UPDATE tickets SET status=$1, status_changed_at=$2, updated_at=NOW(),
            awaiting_info_since = CASE WHEN $1 = 'AwaitingInfo' THEN COALESCE(awaiting_info_since, $2) ELSE NULL END
        WHERE id = ANY($3)`
	_, err := r.pool.Exec(ctx, query, target, now, ids)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Numero,
		&ticket.CompanyID,
		&ticket.AIID,
		&ticket.AIName,
		&ticket.Title,
		&ticket.Description,
		&ticket.WhatShouldHappen,
		&ticket.Urgency,
		&ticket.Attachments,
		&ticket.RequesterName,
		&ticket.Status,
		&ticket.Solution,
		&ticket.SolutionAttachments,
		&ticket.ResolvedBy,
		&ticket.ResolvedAt,
		&ticket.AwaitingInfoSince,
		&ticket.ChatHistory,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.StatusChangedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func jsonArg(v any) (string, error) {
	if v == nil {
		return "[]", nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(encoded) == "null" {
		return "[]", nil
	}
	return string(encoded), nil
}
