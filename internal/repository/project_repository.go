package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"craftbid/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrBidNotFound     = errors.New("bid not found")
)

// ProjectRepository defines data access for projects and their line items.
// Every state-changing method runs in one transaction that re-reads the
// project row FOR UPDATE and re-checks its status, so two concurrent
// transitions cannot both succeed: the loser sees the advanced status and
// gets a StateConflictError.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, pageSize int) ([]*domain.Project, int, error)
	ListOpen(ctx context.Context, page, pageSize int) ([]*domain.Project, int, error)
	ReplaceItems(ctx context.Context, projectID uuid.UUID, items []domain.LineItem, baseline int64) error

	Publish(ctx context.Context, id uuid.UUID, to domain.ProjectStatus) (*domain.Project, error)
	SelectWinner(ctx context.Context, projectID, bidID uuid.UUID) (*domain.Project, *domain.Bid, error)
	Deliver(ctx context.Context, projectID, vendorID uuid.UUID, note string, files []string) (*domain.Project, error)
	AcceptDelivery(ctx context.Context, projectID, customerID uuid.UUID, commission, earnings int64) (*domain.Project, error)
	RejectDelivery(ctx context.Context, projectID, customerID uuid.UUID, reason string) (*domain.Project, error)
	Cancel(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
}

type projectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new instance of ProjectRepository
func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, customer_id, status, baseline_total, requested_days,
	assigned_vendor, agreed_price, commission, vendor_earnings,
	delivery_note, delivery_files, rejection_reason, created_at, updated_at`

// Create inserts a project and its line items in one transaction.
func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	files, err := json.Marshal(stringsOrEmpty(project.DeliveryFiles))
	if err != nil {
		return fmt.Errorf("failed to encode delivery files: %w", err)
	}

	query := `
		INSERT INTO projects (id, customer_id, status, baseline_total, requested_days,
			assigned_vendor, agreed_price, commission, vendor_earnings,
			delivery_note, delivery_files, rejection_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(
		ctx,
		query,
		project.ID,
		project.CustomerID,
		int(project.Status),
		project.BaselineTotal,
		project.RequestedDays,
		project.AssignedVendor,
		project.AgreedPrice,
		project.Commission,
		project.VendorEarnings,
		project.DeliveryNote,
		files,
		project.RejectionReason,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := insertItems(ctx, tx, project.ID, project.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project: %w", err)
	}
	return nil
}

// FindByID retrieves a project with its line items.
func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)

	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project by ID: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Items = items

	return project, nil
}

// ListByCustomer retrieves a customer's projects with pagination, newest first.
func (r *projectRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, pageSize int) ([]*domain.Project, int, error) {
	return r.list(ctx, "WHERE customer_id = $1", []interface{}{customerID}, page, pageSize)
}

// ListOpen retrieves projects currently accepting bids, newest first.
func (r *projectRepository) ListOpen(ctx context.Context, page, pageSize int) ([]*domain.Project, int, error) {
	return r.list(ctx, "WHERE status IN ($1, $2)",
		[]interface{}{int(domain.StatusPublished), int(domain.StatusInBidding)}, page, pageSize)
}

func (r *projectRepository) list(ctx context.Context, whereClause string, args []interface{}, page, pageSize int) ([]*domain.Project, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM projects %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT %s FROM projects
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, projectColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, total, nil
}

// ReplaceItems swaps a draft project's line items and baseline in one
// transaction. The status check keeps published projects immutable.
func (r *projectRepository) ReplaceItems(ctx context.Context, projectID uuid.UUID, items []domain.LineItem, baseline int64) error {
	return r.withProject(ctx, projectID, func(tx *sql.Tx, project *domain.Project) error {
		if project.Status != domain.StatusDraft {
			return stateConflict(project, "requote")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE project_id = $1`, projectID); err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}
		if err := insertItems(ctx, tx, projectID, items); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE projects SET baseline_total = $2, updated_at = $3 WHERE id = $1`,
			projectID, baseline, time.Now())
		if err != nil {
			return fmt.Errorf("failed to update baseline: %w", err)
		}
		return nil
	})
}

// Publish moves a draft project into a bid-accepting status. Moderation
// decides the target (Published or InBidding); the core only records it.
func (r *projectRepository) Publish(ctx context.Context, id uuid.UUID, to domain.ProjectStatus) (*domain.Project, error) {
	var result *domain.Project
	err := r.withProject(ctx, id, func(tx *sql.Tx, project *domain.Project) error {
		if project.Status != domain.StatusDraft {
			return stateConflict(project, "publish")
		}
		if !to.AcceptsBids() {
			return stateConflict(project, "publish")
		}

		if err := setStatus(ctx, tx, id, to); err != nil {
			return err
		}
		project.Status = to
		result = project
		return nil
	})
	return result, err
}

// SelectWinner performs the atomic accept-bid transition: the chosen bid
// becomes accepted, every other non-terminal bid on the project becomes
// rejected, the vendor and agreed price are recorded, and the project
// advances to InProgress. All of it happens or none of it does.
func (r *projectRepository) SelectWinner(ctx context.Context, projectID, bidID uuid.UUID) (*domain.Project, *domain.Bid, error) {
	var (
		resultProject *domain.Project
		resultBid     *domain.Bid
	)
	err := r.withProject(ctx, projectID, func(tx *sql.Tx, project *domain.Project) error {
		if !project.Status.AcceptsBids() {
			return stateConflict(project, "accept bid")
		}

		bid, err := scanBid(tx.QueryRowContext(ctx,
			`SELECT `+bidColumns+` FROM bids WHERE id = $1 AND project_id = $2 FOR UPDATE`,
			bidID, projectID))
		if err != nil {
			if err == sql.ErrNoRows {
				return &domain.NotFoundError{Entity: "bid", ID: bidID.String()}
			}
			return fmt.Errorf("failed to load bid: %w", err)
		}
		if bid.Status != domain.BidPending {
			return &domain.StateConflictError{
				Entity:    "bid",
				ID:        bid.ID.String(),
				Current:   string(bid.Status),
				Operation: "accept",
			}
		}

		now := time.Now()
		_, err = tx.ExecContext(ctx,
			`UPDATE bids SET status = $1, updated_at = $2 WHERE project_id = $3 AND status = $4 AND id <> $5`,
			string(domain.BidRejected), now, projectID, string(domain.BidPending), bidID)
		if err != nil {
			return fmt.Errorf("failed to reject competing bids: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE bids SET status = $1, updated_at = $2 WHERE id = $3`,
			string(domain.BidAccepted), now, bidID)
		if err != nil {
			return fmt.Errorf("failed to accept bid: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects
			SET status = $2, assigned_vendor = $3, agreed_price = $4, updated_at = $5
			WHERE id = $1
		`, projectID, int(domain.StatusInProgress), bid.VendorID, bid.Price, now)
		if err != nil {
			return fmt.Errorf("failed to advance project: %w", err)
		}

		bid.Status = domain.BidAccepted
		project.Status = domain.StatusInProgress
		project.AssignedVendor = &bid.VendorID
		project.AgreedPrice = bid.Price
		resultProject = project
		resultBid = bid
		return nil
	})
	return resultProject, resultBid, err
}

// Deliver records the assigned vendor's delivery and advances the project to
// Delivered.
func (r *projectRepository) Deliver(ctx context.Context, projectID, vendorID uuid.UUID, note string, files []string) (*domain.Project, error) {
	var result *domain.Project
	err := r.withProject(ctx, projectID, func(tx *sql.Tx, project *domain.Project) error {
		if project.Status != domain.StatusInProgress {
			return stateConflict(project, "deliver")
		}
		if project.AssignedVendor == nil || *project.AssignedVendor != vendorID {
			return &domain.StateConflictError{
				Entity:    "project",
				ID:        project.ID.String(),
				Current:   project.Status.String(),
				Operation: "deliver as non-assigned vendor",
			}
		}

		encoded, err := json.Marshal(stringsOrEmpty(files))
		if err != nil {
			return fmt.Errorf("failed to encode delivery files: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects
			SET status = $2, delivery_note = $3, delivery_files = $4, updated_at = $5
			WHERE id = $1
		`, projectID, int(domain.StatusDelivered), note, encoded, time.Now())
		if err != nil {
			return fmt.Errorf("failed to record delivery: %w", err)
		}

		project.Status = domain.StatusDelivered
		project.DeliveryNote = note
		project.DeliveryFiles = files
		result = project
		return nil
	})
	return result, err
}

// AcceptDelivery completes the project and records the commission split.
func (r *projectRepository) AcceptDelivery(ctx context.Context, projectID, customerID uuid.UUID, commission, earnings int64) (*domain.Project, error) {
	var result *domain.Project
	err := r.withProject(ctx, projectID, func(tx *sql.Tx, project *domain.Project) error {
		if project.Status != domain.StatusDelivered {
			return stateConflict(project, "accept delivery")
		}
		if project.CustomerID != customerID {
			return &domain.StateConflictError{
				Entity:    "project",
				ID:        project.ID.String(),
				Current:   project.Status.String(),
				Operation: "accept delivery as non-owner",
			}
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE projects
			SET status = $2, commission = $3, vendor_earnings = $4, updated_at = $5
			WHERE id = $1
		`, projectID, int(domain.StatusCompleted), commission, earnings, time.Now())
		if err != nil {
			return fmt.Errorf("failed to complete project: %w", err)
		}

		project.Status = domain.StatusCompleted
		project.Commission = commission
		project.VendorEarnings = earnings
		result = project
		return nil
	})
	return result, err
}

// RejectDelivery sends the project back to InProgress with the customer's
// reason; the vendor may re-deliver.
func (r *projectRepository) RejectDelivery(ctx context.Context, projectID, customerID uuid.UUID, reason string) (*domain.Project, error) {
	var result *domain.Project
	err := r.withProject(ctx, projectID, func(tx *sql.Tx, project *domain.Project) error {
		if project.Status != domain.StatusDelivered {
			return stateConflict(project, "reject delivery")
		}
		if project.CustomerID != customerID {
			return &domain.StateConflictError{
				Entity:    "project",
				ID:        project.ID.String(),
				Current:   project.Status.String(),
				Operation: "reject delivery as non-owner",
			}
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE projects
			SET status = $2, rejection_reason = $3, updated_at = $4
			WHERE id = $1
		`, projectID, int(domain.StatusInProgress), reason, time.Now())
		if err != nil {
			return fmt.Errorf("failed to reject delivery: %w", err)
		}

		project.Status = domain.StatusInProgress
		project.RejectionReason = reason
		result = project
		return nil
	})
	return result, err
}

// Cancel moves any non-terminal project to Cancelled.
func (r *projectRepository) Cancel(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	var result *domain.Project
	err := r.withProject(ctx, projectID, func(tx *sql.Tx, project *domain.Project) error {
		if project.Status.Terminal() {
			return stateConflict(project, "cancel")
		}

		if err := setStatus(ctx, tx, projectID, domain.StatusCancelled); err != nil {
			return err
		}
		project.Status = domain.StatusCancelled
		result = project
		return nil
	})
	return result, err
}

// withProject runs fn inside a transaction holding a FOR UPDATE lock on the
// project row. The project passed to fn reflects committed state; fn is
// responsible for re-checking status preconditions under the lock.
func (r *projectRepository) withProject(ctx context.Context, id uuid.UUID, fn func(tx *sql.Tx, project *domain.Project) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1 FOR UPDATE`, projectColumns)
	project, err := scanProject(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to lock project: %w", err)
	}

	if err := fn(tx, project); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

func (r *projectRepository) loadItems(ctx context.Context, projectID uuid.UUID) ([]domain.LineItem, error) {
	query := `
		SELECT id, project_id, product_id, subtype_id, material_id, color_id,
			width, height, length, quantity, accessory_ids, description,
			main, position, price_per_unit, total
		FROM line_items
		WHERE project_id = $1
		ORDER BY main DESC, position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	defer rows.Close()

	items := []domain.LineItem{}
	for rows.Next() {
		var (
			item        domain.LineItem
			accessories []byte
		)
		err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.ProductID,
			&item.SubtypeID,
			&item.MaterialID,
			&item.ColorID,
			&item.Width,
			&item.Height,
			&item.Length,
			&item.Quantity,
			&accessories,
			&item.Description,
			&item.Main,
			&item.Position,
			&item.PricePerUnit,
			&item.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		if err := json.Unmarshal(accessories, &item.AccessoryIDs); err != nil {
			return nil, fmt.Errorf("failed to decode accessory ids: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return items, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, projectID uuid.UUID, items []domain.LineItem) error {
	query := `
		INSERT INTO line_items (id, project_id, product_id, subtype_id, material_id,
			color_id, width, height, length, quantity, accessory_ids, description,
			main, position, price_per_unit, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	for _, item := range items {
		accessories, err := json.Marshal(stringsOrEmpty(item.AccessoryIDs))
		if err != nil {
			return fmt.Errorf("failed to encode accessory ids: %w", err)
		}
		_, err = tx.ExecContext(
			ctx,
			query,
			item.ID,
			projectID,
			item.ProductID,
			item.SubtypeID,
			item.MaterialID,
			item.ColorID,
			item.Width,
			item.Height,
			item.Length,
			item.Quantity,
			accessories,
			item.Description,
			item.Main,
			item.Position,
			item.PricePerUnit,
			item.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		project domain.Project
		status  int
		vendor  sql.NullString
		files   []byte
	)
	err := row.Scan(
		&project.ID,
		&project.CustomerID,
		&status,
		&project.BaselineTotal,
		&project.RequestedDays,
		&vendor,
		&project.AgreedPrice,
		&project.Commission,
		&project.VendorEarnings,
		&project.DeliveryNote,
		&files,
		&project.RejectionReason,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	project.Status = domain.ProjectStatus(status)
	if vendor.Valid {
		id, err := uuid.Parse(vendor.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt assigned vendor id: %w", err)
		}
		project.AssignedVendor = &id
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &project.DeliveryFiles); err != nil {
			return nil, fmt.Errorf("failed to decode delivery files: %w", err)
		}
	}

	return &project, nil
}

func setStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, to domain.ProjectStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1`,
		id, int(to), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	return nil
}

func stateConflict(p *domain.Project, operation string) error {
	return &domain.StateConflictError{
		Entity:    "project",
		ID:        p.ID.String(),
		Current:   p.Status.String(),
		Operation: operation,
	}
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
