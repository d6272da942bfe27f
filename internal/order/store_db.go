package order

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second
)

const orderColumns = `id, customer_id, customer_name, customer_email, customer_phone,
	customer_address, customer_city, customer_pincode, shop_id, shop_name, total, status,
	payment_method, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, o.ID, o.CustomerID, o.Name, o.Email, o.Phone, o.Address, o.City, o.Pincode,
		o.ShopID, o.ShopName, o.Total, string(o.Status), o.PaymentMethod, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (order_id, line, product_id, product_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range o.Items {
		if _, err := stmt.ExecContext(ctx, o.ID, i, it.ProductID, it.ProductName, it.Quantity, it.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.City,
		&o.Pincode, &o.ShopID, &o.ShopName, &o.Total, &status, &o.PaymentMethod, &o.CreatedAt,
		&o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}

	if err := s.loadItems(ctx, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Order, error) {
	out := []Order{}
	if f.empty() {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, "customer_id = $"+strconv.Itoa(len(args)))
	}
	if len(f.ShopIDs) > 0 {
		marks := make([]string, 0, len(f.ShopIDs))
		for _, id := range f.ShopIDs {
			args = append(args, id)
			marks = append(marks, "$"+strconv.Itoa(len(args)))
		}
		conds = append(conds, "shop_id IN ("+strings.Join(marks, ", ")+")")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+strings.Join(conds, " OR ")+`
		ORDER BY created_at DESC, id DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*Order, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := s.loadItems(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*Order, len(orders))
	marks := make([]string, 0, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		o.Items = []Item{}
		byID[o.ID] = o
		args = append(args, o.ID)
		marks = append(marks, "$"+strconv.Itoa(len(args)))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id IN (`+strings.Join(marks, ", ")+`)
		ORDER BY order_id, line
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      Item
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Order, error) {
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	res, err := s.db.ExecContext(qctx, `
		UPDATE orders SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), at)
	cancel()
	if err != nil {
		return Order{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Order{}, err
	}
	if n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return Order{}, err
		}
		return Order{}, ErrStatusConflict
	}
	return s.Get(ctx, id)
}
