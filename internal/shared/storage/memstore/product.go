// Package memstore Product 相关的存储操作
package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// cloneProduct 深拷贝商品记录（Price 指针单独复制）
func cloneProduct(p *model.Product) *model.Product {
	c := *p
	if p.Price != nil {
		price := *p.Price
		c.Price = &price
	}
	return &c
}

// productField 过滤字段白名单：返回字段的字符串值
func productField(p *model.Product, field string) (string, bool) {
	switch field {
	case "category":
		return p.Category, true
	case "status":
		return string(p.Status), true
	}
	return "", false
}

// matchProduct 评估条件合取，白名单外的条件忽略
func matchProduct(p *model.Product, conds []storage.Condition) bool {
	for _, c := range conds {
		v, ok := productField(p, c.Field)
		if !ok {
			continue
		}
		want := fmt.Sprint(c.Value)
		switch c.Op {
		case storage.OpEq:
			if v != want {
				return false
			}
		case storage.OpContains:
			if !containsFold(v, want) {
				return false
			}
		}
	}
	return true
}

// CreateProduct 创建商品，时间戳由本层分配
func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return &storage.ConflictError{Field: "id"}
	}

	now := touch()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = &productEntry{product: cloneProduct(product), seq: s.nextSeq()}
	return nil
}

// CreateProducts 批量创建商品，全成全败
func (s *Store) CreateProducts(ctx context.Context, products []*model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range products {
		if _, exists := s.products[p.ID]; exists {
			return fmt.Errorf("record %d: %w", i, &storage.ConflictError{Field: "id"})
		}
	}

	now := touch()
	for _, p := range products {
		p.CreatedAt, p.UpdatedAt = now, now
		s.products[p.ID] = &productEntry{product: cloneProduct(p), seq: s.nextSeq()}
	}
	return nil
}

// GetProduct 获取商品，不存在时返回 (nil, nil)
func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(e.product), nil
}

// UpdateProduct 按 ID 全量更新商品
func (s *Store) UpdateProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[product.ID]
	if !ok {
		return storage.ErrNotFound
	}

	product.CreatedAt = e.product.CreatedAt
	product.UpdatedAt = touch()
	e.product = cloneProduct(product)
	return nil
}

// DeleteProduct 删除商品并返回被删除的记录
func (s *Store) DeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.products, id)
	return e.product, nil
}

// ListProducts 分页列出商品，创建时间降序
func (s *Store) ListProducts(ctx context.Context, q storage.ListQuery) ([]*model.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*productEntry{}
	for _, e := range s.products {
		if matchProduct(e.product, q.Conditions) {
			matched = append(matched, e)
		}
	}
	total := len(matched)

	sortByCreatedDesc(matched,
		func(e *productEntry) time.Time { return e.product.CreatedAt },
		func(e *productEntry) int64 { return e.seq })

	page := paginate(matched, q)
	products := make([]*model.Product, len(page))
	for i, e := range page {
		products[i] = cloneProduct(e.product)
	}
	return products, total, nil
}

// SearchProducts 关键字搜索：name/description/category 的 OR 子串匹配
func (s *Store) SearchProducts(ctx context.Context, keyword string) ([]*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := []*model.Product{}
	for _, e := range s.products {
		p := e.product
		if containsFold(p.Name, keyword) || containsFold(p.Description, keyword) || containsFold(p.Category, keyword) {
			products = append(products, cloneProduct(p))
			if len(products) >= storage.SearchLimit {
				break
			}
		}
	}
	return products, nil
}

// ProductStats 按分类分组统计：数量、平均价格、库存总量
func (s *Store) ProductStats(ctx context.Context) ([]*model.ProductGroupStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		count    int
		priceSum float64
		priceN   int
		quantity int
	}
	groups := map[string]*agg{}
	for _, e := range s.products {
		p := e.product
		g, ok := groups[p.Category]
		if !ok {
			g = &agg{}
			groups[p.Category] = g
		}
		g.count++
		if p.Price != nil {
			g.priceSum += *p.Price
			g.priceN++
		}
		g.quantity += p.Quantity
	}

	stats := []*model.ProductGroupStats{}
	for category, g := range groups {
		st := &model.ProductGroupStats{Category: category, Count: g.count, TotalQuantity: g.quantity}
		if g.priceN > 0 {
			avg := g.priceSum / float64(g.priceN)
			st.AvgPrice = &avg
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Category < stats[j].Category })
	return stats, nil
}
