// Package repository ListQuery 到 SQL 的翻译
package repository

import (
	"fmt"
	"strings"

	"catalog-admin/internal/shared/storage"
	"catalog-admin/internal/shared/storage/dbutil"
)

// buildWhere 将 ListQuery 的条件翻译为 WHERE 子句
//
// columns 是实体的字段白名单（API 字段名 -> 列名），
// 白名单之外的条件被忽略而非报错。
// 返回的占位符从 $1 开始编号，后续 LIMIT/OFFSET 参数应接续编号。
func buildWhere(d dbutil.Dialect, q storage.ListQuery, columns map[string]string) (string, []interface{}) {
	var conds []string
	var args []interface{}

	for _, c := range q.Conditions {
		col, ok := columns[c.Field]
		if !ok {
			continue
		}
		switch c.Op {
		case storage.OpEq:
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)+1))
			args = append(args, c.Value)
		case storage.OpContains:
			conds = append(conds, fmt.Sprintf("%s %s $%d ESCAPE '\\'", col, d.ILike(), len(args)+1))
			args = append(args, containsPattern(c.Value))
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildSearch 构建关键字搜索的 WHERE 子句：各文本列的 OR 匹配
func buildSearch(d dbutil.Dialect, keyword string, columns []string) (string, []interface{}) {
	pattern := containsPattern(keyword)
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = fmt.Sprintf("%s %s $%d ESCAPE '\\'", col, d.ILike(), i+1)
		args[i] = pattern
	}
	return " WHERE " + strings.Join(conds, " OR "), args
}

// containsPattern 生成字面子串匹配的 LIKE 模式
func containsPattern(v interface{}) string {
	return "%" + dbutil.EscapeLike(fmt.Sprint(v)) + "%"
}
