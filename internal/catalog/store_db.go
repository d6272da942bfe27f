package catalog

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
	queryTimeout = 3 * time.Second
)

const (
	shopColumns = `id, shop_name, owner_name, owner_id, category, address, city, phone,
		timings, description, logo, rating, review_count, is_verified, created_at, updated_at`
	productColumns = `id, name, description, price, category, shop_id, image, in_stock, stock,
		created_at, updated_at`
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShop(row scanner) (Shop, error) {
	var (
		sh     Shop
		logo   sql.NullString
		rating sql.NullFloat64
	)
	err := row.Scan(&sh.ID, &sh.ShopName, &sh.OwnerName, &sh.OwnerID, &sh.Category, &sh.Address,
		&sh.City, &sh.Phone, &sh.Timings, &sh.Description, &logo, &rating, &sh.ReviewCount,
		&sh.IsVerified, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return Shop{}, err
	}
	if logo.Valid {
		sh.Logo = &logo.String
	}
	if rating.Valid {
		sh.Rating = &rating.Float64
	}
	return sh, nil
}

func scanProduct(row scanner) (Product, error) {
	var (
		p     Product
		stock sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ShopID, &p.Image,
		&p.InStock, &stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if stock.Valid {
		n := int(stock.Int64)
		p.Stock = &n
	}
	return p, nil
}

func (s *PostgresStore) ListShops(ctx context.Context, f ShopFilter) ([]Shop, error) {
	q := `SELECT ` + shopColumns + ` FROM shops`
	var args []any
	if f.OwnerID != "" {
		q += ` WHERE owner_id = $1`
		args = append(args, f.OwnerID)
	}
	q += ` ORDER BY created_at ASC, id ASC`

	var out []Shop
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Shop, 0, 16)
		for rows.Next() {
			sh, err := scanShop(rows)
			if err != nil {
				return err
			}
			out = append(out, sh)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetShop(ctx context.Context, id string) (Shop, error) {
	var sh Shop
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		sh, err = scanShop(s.db.QueryRowContext(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Shop{}, ErrShopNotFound
	}
	return sh, err
}

func (s *PostgresStore) CreateShop(ctx context.Context, sh Shop) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO shops (`+shopColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`, sh.ID, sh.ShopName, sh.OwnerName, sh.OwnerID, sh.Category, sh.Address, sh.City, sh.Phone,
			sh.Timings, sh.Description, sh.Logo, sh.Rating, sh.ReviewCount, sh.IsVerified, sh.CreatedAt, sh.UpdatedAt)
		return err
	})
}

func (s *PostgresStore) UpdateShop(ctx context.Context, sh Shop) error {
	return s.execAffecting(ctx, ErrShopNotFound, `
		UPDATE shops SET shop_name = $2, category = $3, address = $4, city = $5, phone = $6,
			timings = $7, description = $8, logo = $9, updated_at = $10
		WHERE id = $1
	`, sh.ID, sh.ShopName, sh.Category, sh.Address, sh.City, sh.Phone, sh.Timings, sh.Description,
		sh.Logo, sh.UpdatedAt)
}

func (s *PostgresStore) DeleteShop(ctx context.Context, id string) error {
	return s.execAffecting(ctx, ErrShopNotFound, `DELETE FROM shops WHERE id = $1`, id)
}

func (s *PostgresStore) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	var (
		where []string
		args  []any
	)
	if f.ShopID != "" {
		args = append(args, f.ShopID)
		where = append(where, "shop_id = $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at ASC, id ASC`

	var out []Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, p.ID, p.Name, p.Description, p.Price, p.Category, p.ShopID, p.Image, p.InStock, p.Stock,
			p.CreatedAt, p.UpdatedAt)
		return err
	})
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p Product) error {
	return s.execAffecting(ctx, ErrProductNotFound, `
		UPDATE products SET name = $2, description = $3, price = $4, category = $5, image = $6,
			in_stock = $7, stock = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.InStock, p.Stock, p.UpdatedAt)
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	return s.execAffecting(ctx, ErrProductNotFound, `DELETE FROM products WHERE id = $1`, id)
}

func (s *PostgresStore) execAffecting(ctx context.Context, notFound error, q string, args ...any) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound
		}
		return nil
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
