package main

import (
	"fmt"
	"strconv"
	"strings"
)

type item struct {
	productID string
	quantity  int
}

// itemList collects repeated -item id[:quantity] flags
type itemList []item

func (l *itemList) String() string {
	parts := make([]string, len(*l))
	for i, it := range *l {
		parts[i] = fmt.Sprintf("%s:%d", it.productID, it.quantity)
	}
	return strings.Join(parts, ",")
}

func (l *itemList) Set(v string) error {
	it, err := parseItem(v)
	if err != nil {
		return err
	}
	*l = append(*l, it)
	return nil
}

func parseItem(v string) (item, error) {
	id, qty, hasQty := strings.Cut(strings.TrimSpace(v), ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return item{}, fmt.Errorf("item %q: missing product id", v)
	}
	if !hasQty {
		return item{productID: id, quantity: 1}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil || n < 1 {
		return item{}, fmt.Errorf("item %q: quantity must be a positive integer", v)
	}
	return item{productID: id, quantity: n}, nil
}
