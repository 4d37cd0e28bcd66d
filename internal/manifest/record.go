package manifest

import "time"

// InstalledLibraryRecord is one entry in the persistent manifest's
// libraries map. installedBy ∪ {manual} is the reference set; the file is
// deleted from disk exactly when this set becomes empty.
type InstalledLibraryRecord struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	InstalledBy []string  `json:"installedBy"`
	Manual      bool      `json:"manual"`
	InstalledAt time.Time `json:"installedAt"`
}

// InstalledCollectionRecord is one entry in the persistent manifest's
// collections map.
type InstalledCollectionRecord struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Version     string    `json:"version,omitempty"`
	Libraries   []string  `json:"libraries"`
	Collections []string  `json:"collections"`
	InstalledAt time.Time `json:"installedAt"`
}

// Document is the root of manifest.json.
type Document struct {
	Version     string                               `json:"version"`
	Collections map[string]InstalledCollectionRecord `json:"collections"`
	Libraries   map[string]InstalledLibraryRecord    `json:"libraries"`
}

// DocumentVersion is written into every fresh Document.
const DocumentVersion = "1.0.0"

func newDocument() *Document {
	return &Document{
		Version:     DocumentVersion,
		Collections: map[string]InstalledCollectionRecord{},
		Libraries:   map[string]InstalledLibraryRecord{},
	}
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func removeString(ss []string, s string) []string {
	out := ss[:0:0]
	for _, x := range ss {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}

// AddLibrary records an install. If the library already has a record, the
// collection name (if any) is added to installedBy (deduplicated) and the
// manual flag is OR'd in; otherwise a fresh record is created.
func (d *Document) AddLibrary(name, source, collectionName string) {
	rec, ok := d.Libraries[name]
	if !ok {
		rec = InstalledLibraryRecord{
			Name:        name,
			Source:      source,
			InstalledAt: time.Now().UTC(),
		}
	}
	if collectionName != "" {
		if !containsString(rec.InstalledBy, collectionName) {
			rec.InstalledBy = append(rec.InstalledBy, collectionName)
		}
	} else {
		rec.Manual = true
	}
	d.Libraries[name] = rec
}

// RemoveCollection drops the named collection record and, for each
// library it claimed, removes that collection from installedBy. A
// library whose reference set becomes empty (installedBy empty and
// manual false) is dropped and returned.
func (d *Document) RemoveCollection(name string) []string {
	coll, ok := d.Collections[name]
	if !ok {
		return nil
	}
	delete(d.Collections, name)

	var orphaned []string
	for _, libName := range coll.Libraries {
		rec, ok := d.Libraries[libName]
		if !ok {
			continue
		}
		rec.InstalledBy = removeString(rec.InstalledBy, name)
		if len(rec.InstalledBy) == 0 && !rec.Manual {
			delete(d.Libraries, libName)
			orphaned = append(orphaned, libName)
			continue
		}
		d.Libraries[libName] = rec
	}
	return orphaned
}

// RemoveLibrary removes a reference to name. When collectionName is set,
// that collection reference is dropped; when empty (manual uninstall),
// the manual flag is cleared. Returns true, and drops the record, iff the
// reference set is empty afterward.
func (d *Document) RemoveLibrary(name, collectionName string) bool {
	rec, ok := d.Libraries[name]
	if !ok {
		return false
	}
	if collectionName != "" {
		rec.InstalledBy = removeString(rec.InstalledBy, collectionName)
	} else {
		rec.Manual = false
	}

	if len(rec.InstalledBy) == 0 && !rec.Manual {
		delete(d.Libraries, name)
		return true
	}
	d.Libraries[name] = rec
	return false
}

// AddCollection records a freshly installed collection.
func (d *Document) AddCollection(rec InstalledCollectionRecord) {
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now().UTC()
	}
	d.Collections[rec.Name] = rec
}
