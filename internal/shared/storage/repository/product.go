// Package repository Product 相关的存储操作
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// productFilterColumns 列表过滤的字段白名单（API 字段名 -> 列名）
var productFilterColumns = map[string]string{
	"category": "category",
	"status":   "status",
}

// productSearchColumns 关键字搜索覆盖的文本列
var productSearchColumns = []string{"name", "description", "category"}

const productCols = "id, name, description, price, quantity, category, status, created_at, updated_at"

// scanProduct 辅助函数：从数据库行扫描 Product
func scanProduct(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Product, error) {
	p := &model.Product{}
	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity,
		&p.Category, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProduct 创建商品，时间戳由本层分配
func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	now := touch()
	product.CreatedAt, product.UpdatedAt = now, now

	query := s.rebind(`
		INSERT INTO products (id, name, description, price, quantity, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	_, err := s.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Quantity,
		product.Category, product.Status, product.CreatedAt, product.UpdatedAt)
	return wrapError(err)
}

// CreateProducts 批量创建商品
//
// 单事务执行，全成全败：任一记录插入失败则整批回滚，
// 错误信息携带失败记录的下标。
func (s *Store) CreateProducts(ctx context.Context, products []*model.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError(err)
	}
	defer tx.Rollback()

	query := s.rebind(`
		INSERT INTO products (id, name, description, price, quantity, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	now := touch()
	for i, p := range products {
		p.CreatedAt, p.UpdatedAt = now, now
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.Name, p.Description, p.Price, p.Quantity,
			p.Category, p.Status, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("record %d: %w", i, wrapError(err))
		}
	}
	return tx.Commit()
}

// GetProduct 获取商品，不存在时返回 (nil, nil)
func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	query := s.rebind(`SELECT ` + productCols + ` FROM products WHERE id = $1`)
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err)
	}
	return p, nil
}

// UpdateProduct 按 ID 全量更新商品
func (s *Store) UpdateProduct(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = touch()
	query := s.rebind(`
		UPDATE products SET name = $1, description = $2, price = $3, quantity = $4,
			category = $5, status = $6, updated_at = $7
		WHERE id = $8
	`)
	res, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Quantity,
		product.Category, product.Status, product.UpdatedAt, product.ID)
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteProduct 删除商品并返回被删除的记录
func (s *Store) DeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, storage.ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM products WHERE id = $1`), id)
	if err != nil {
		return nil, wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

// ListProducts 分页列出商品
func (s *Store) ListProducts(ctx context.Context, q storage.ListQuery) ([]*model.Product, int, error) {
	where, args := buildWhere(s.dialect, q, productFilterColumns)

	var total int
	countQuery := s.rebind(`SELECT COUNT(*) FROM products` + where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, wrapError(err)
	}

	listQuery := s.rebind(fmt.Sprintf(
		`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productCols, where, len(args)+1, len(args)+2))
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// SearchProducts 关键字搜索：name/description/category 的 OR 子串匹配
func (s *Store) SearchProducts(ctx context.Context, keyword string) ([]*model.Product, error) {
	where, args := buildSearch(s.dialect, keyword, productSearchColumns)
	query := s.rebind(fmt.Sprintf(`SELECT %s FROM products%s LIMIT $%d`, productCols, where, len(args)+1))
	rows, err := s.db.QueryContext(ctx, query, append(args, storage.SearchLimit)...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ProductStats 按分类分组统计：数量、平均价格、库存总量
func (s *Store) ProductStats(ctx context.Context) ([]*model.ProductGroupStats, error) {
	query := s.rebind(`
		SELECT category, COUNT(*), AVG(price::float), COALESCE(SUM(quantity), 0)
		FROM products GROUP BY category ORDER BY category
	`)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	stats := []*model.ProductGroupStats{}
	for rows.Next() {
		st := &model.ProductGroupStats{}
		if err := rows.Scan(&st.Category, &st.Count, &st.AvgPrice, &st.TotalQuantity); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
