package pipeline

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/cogentcore/webgpu/wgpu"
)

// UniformEntry returns the layout entry of a uniform buffer binding.
//
// Parameters:
//   - binding: the binding index within its group
//   - visibility: the shader stages that read the buffer
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func UniformEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}
	entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	return entry
}

// MergeBindGroupLayouts combines the bind group layouts declared by the vertex and fragment stages
// into one set of descriptors suitable for a render pipeline layout.
//
// For each group index present in either stage:
//   - Entries with the same binding number have their Visibility flags ORed together
//   - Entries unique to one stage are included with their original visibility
//
// Entries of merged groups are sorted by binding.
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors of the vertex stage
//   - fragmentLayouts: bind group layout descriptors of the fragment stage
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts)+len(fragmentLayouts))

	for g, vDesc := range vertexLayouts {
		fDesc, hasF := fragmentLayouts[g]
		if !hasF {
			merged[g] = vDesc
			continue
		}

		entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry, len(vDesc.Entries)+len(fDesc.Entries))
		for _, e := range vDesc.Entries {
			entryMap[e.Binding] = e
		}
		for _, e := range fDesc.Entries {
			if existing, ok := entryMap[e.Binding]; ok {
				existing.Visibility |= e.Visibility
				entryMap[e.Binding] = existing
			} else {
				entryMap[e.Binding] = e
			}
		}

		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
		for _, e := range entryMap {
			entries = append(entries, e)
		}
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})

		merged[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   vDesc.Label,
			Entries: entries,
		}
	}
	for g, fDesc := range fragmentLayouts {
		if _, hasV := vertexLayouts[g]; !hasV {
			merged[g] = fDesc
		}
	}

	return merged
}

// GroupCount returns the number of bind group slots a pipeline layout needs for layouts,
// which is one past the highest group index.
//
// Parameters:
//   - layouts: bind group layout descriptors keyed by group index
//
// Returns:
//   - int: the slot count, 0 when layouts is empty
func GroupCount(layouts map[int]wgpu.BindGroupLayoutDescriptor) int {
	maxGroup := -1
	for g := range layouts {
		maxGroup = max(maxGroup, g)
	}
	return maxGroup + 1
}

// BindGroupLayoutKey fingerprints the entries of a bind group layout. Labels are ignored, so two
// layouts that bind the same resources share a key and can share one GPU object.
//
// Parameters:
//   - desc: the layout descriptor
//
// Returns:
//   - uint64: the fingerprint
func BindGroupLayoutKey(desc wgpu.BindGroupLayoutDescriptor) uint64 {
	buf := make([]byte, 0, 32*len(desc.Entries))
	for _, e := range desc.Entries {
		buf = binary.LittleEndian.AppendUint32(buf, e.Binding)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Visibility))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Buffer.Type))
		if e.Buffer.HasDynamicOffset {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.LittleEndian.AppendUint64(buf, e.Buffer.MinBindingSize)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Sampler.Type))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Texture.SampleType))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Texture.ViewDimension))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.StorageTexture.Format))
	}
	return xxhash.Sum64(buf)
}
