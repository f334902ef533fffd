package assets

import "github.com/gogpu/assets/render"

// Material groups the textures and factors of a surface.
//
// A Material holds strong handles to its textures. When a material created
// with NewMaterial is collected, the table calls Destroy, which releases
// them.
type Material struct {
	Label string

	// Nil texture handles fall back to the table defaults.
	BaseColor         *Handle[render.Texture]
	Normal            *Handle[render.Texture]
	MetallicRoughness *Handle[render.Texture]

	BaseColorFactor [4]float32
	MetallicFactor  float32
	RoughnessFactor float32
}

// DefaultMaterial returns an untextured white dielectric material.
func DefaultMaterial() *Material {
	return &Material{
		Label:           "default_material",
		BaseColorFactor: [4]float32{1, 1, 1, 1},
		MetallicFactor:  0,
		RoughnessFactor: 1,
	}
}

// Destroy releases the texture handles. Safe to call more than once.
func (m *Material) Destroy() {
	for _, h := range []*Handle[render.Texture]{m.BaseColor, m.Normal, m.MetallicRoughness} {
		if h != nil {
			h.Release()
		}
	}
}

// Textures resolves the material's textures in t, substituting the colour
// default for missing base colour and metallic-roughness maps and the flat
// normal for a missing normal map.
func (m *Material) Textures(t *Table) (baseColor, normal, metallicRoughness *render.Texture) {
	return t.textureOr(m.BaseColor, t.defaults.color),
		t.textureOr(m.Normal, t.defaults.normal),
		t.textureOr(m.MetallicRoughness, t.defaults.color)
}

// TextureVersion names one texture payload: the asset and its version.
// A nil handle is the zero value.
type TextureVersion struct {
	ID      HandleID
	Version uint32
}

// MaterialVersion identifies the texture payloads a material resolves to, in
// base colour, normal, metallic-roughness order. It is comparable, so a
// consumer caching a binding built from the material rebuilds it when the
// value changes, including when a texture handle is swapped for another.
type MaterialVersion [3]TextureVersion

// Versions returns the current MaterialVersion of m in t.
func (m *Material) Versions(t *Table) MaterialVersion {
	var mv MaterialVersion
	for i, h := range []*Handle[render.Texture]{m.BaseColor, m.Normal, m.MetallicRoughness} {
		if h == nil {
			continue
		}
		v, _ := GetVersion(t, h)
		mv[i] = TextureVersion{ID: h.ID(), Version: v}
	}
	return mv
}

func (t *Table) textureOr(h *Handle[render.Texture], fallback *render.Texture) *render.Texture {
	if tex, ok := Get(t, h); ok && tex != nil {
		return tex
	}
	return fallback
}

// NewMaterial stores m under a fresh id. The material's texture handles are
// released when the material is collected.
func (t *Table) NewMaterial(m *Material) *Handle[Material] {
	id := t.insert(m, true, "")
	return newHandle[Material](id, t.queues)
}
