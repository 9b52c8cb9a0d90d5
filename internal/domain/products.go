package domain

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var embeddedCatalogs embed.FS

// LoadCatalog разбирает YAML каталога, проставляет теги и проверяет его.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
	}
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Products хранит каталоги по ID продукта. Каталог внутри неизменяем,
// замена каталога подменяет указатель целиком.
type Products struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
}

// ProductInfo описывает продукт для списка
type ProductInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultProducts загружает встроенные каталоги (оба варианта продукта).
func DefaultProducts() (*Products, error) {
	entries, err := embeddedCatalogs.ReadDir("catalogs")
	if err != nil {
		return nil, err
	}
	p := &Products{catalogs: map[string]*Catalog{}}
	for _, e := range entries {
		data, err := embeddedCatalogs.ReadFile("catalogs/" + e.Name())
		if err != nil {
			return nil, err
		}
		c, err := LoadCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", e.Name(), err)
		}
		p.catalogs[c.Product] = c
	}
	return p, nil
}

// LoadDir перекрывает встроенные каталоги файлами *.yaml из dir.
func (p *Products) LoadDir(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return n, err
		}
		c, err := LoadCatalog(data)
		if err != nil {
			return n, fmt.Errorf("catalog %s: %w", filepath.Base(f), err)
		}
		p.Put(c)
		n++
	}
	return n, nil
}

// Get возвращает каталог продукта
func (p *Products) Get(id string) (*Catalog, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.catalogs[strings.TrimSpace(id)]
	return c, ok
}

// Put заменяет каталог продукта (уже проверенный).
func (p *Products) Put(c *Catalog) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalogs[c.Product] = c
}

// List возвращает продукты, отсортированные по ID
func (p *Products) List() []ProductInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ProductInfo, 0, len(p.catalogs))
	for _, c := range p.catalogs {
		out = append(out, ProductInfo{ID: c.Product, Name: c.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
