package configurator

import (
	"sort"

	"configurator-backend/internal/domain"
)

// LayerOffset держит слои опций над базовой картинкой вида.
const LayerOffset = 10

// Layer один слой превью. Owner (ID компонента) служит ключом удаления.
type Layer struct {
	Owner  string            `json:"owner"`
	Option string            `json:"option"`
	Image  string            `json:"image"`
	Rank   int               `json:"rank"`
	Class  domain.LayerClass `json:"class"`
}

// Compositor хранит текущий список слоёв. Слои компонента всегда заменяются
// целиком, поэтому устаревшие картинки не копятся.
type Compositor struct {
	layers []Layer
}

// Replace удаляет все слои owner и добавляет слои для переданных опций.
func (c *Compositor) Replace(owner string, opts []domain.Option) {
	kept := c.layers[:0]
	for _, l := range c.layers {
		if l.Owner != owner {
			kept = append(kept, l)
		}
	}
	c.layers = kept

	for _, o := range opts {
		if o.None || o.Image == "" {
			continue
		}
		c.layers = append(c.layers, Layer{
			Owner:  owner,
			Option: o.ID,
			Image:  o.Image,
			Rank:   o.Z + LayerOffset,
			Class:  o.Class,
		})
	}
}

// Sync пересобирает слои всех компонентов по снапшоту. Скрытые компоненты слоёв не дают.
func (c *Compositor) Sync(cat *domain.Catalog, snap Snapshot, vis Visibility) {
	for i := range cat.Components {
		comp := &cat.Components[i]
		var opts []domain.Option
		if vis.ComponentVisible(comp.ID) {
			for _, id := range snap.Active(comp.ID) {
				if !vis.OptionVisible(comp.ID, id) {
					continue
				}
				if o, ok := comp.Option(id); ok {
					opts = append(opts, *o)
				}
			}
		}
		c.Replace(comp.ID, opts)
	}
}

// Layers возвращает слои вида, отсортированные по рангу.
func (c *Compositor) Layers(view View) []Layer {
	out := make([]Layer, 0, len(c.layers))
	for _, l := range c.layers {
		if l.Class == domain.LayerClass(view) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Owned возвращает слои одного компонента
func (c *Compositor) Owned(owner string) []Layer {
	var out []Layer
	for _, l := range c.layers {
		if l.Owner == owner {
			out = append(out, l)
		}
	}
	return out
}
