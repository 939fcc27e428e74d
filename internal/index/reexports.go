package index

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rsdoclab/rsdoc/internal/rustdoc"
)

// collectReexports walks the module tree and records every pub use that
// exposes an item under a path other than its defining one. Glob
// imports map a whole module prefix.
func collectReexports(crate *rustdoc.Crate, crateName string) []Reexport {
	var reexports []Reexport
	walkModuleReexports(crate.Root, crate, crateName, &reexports)
	return reexports
}

func walkModuleReexports(moduleID int, crate *rustdoc.Crate, crateName string, reexports *[]Reexport) {
	moduleItem, ok := crate.Index[strconv.Itoa(moduleID)]
	if !ok {
		return
	}

	modulePath := crateName
	if summary, ok := crate.Paths[strconv.Itoa(moduleID)]; ok {
		modulePath = strings.Join(summary.Path, "::")
	}

	modData := rustdoc.UnwrapInner(moduleItem.Inner, "module")
	if modData == nil {
		return
	}
	var mod rustdoc.Module
	if err := json.Unmarshal(modData, &mod); err != nil {
		return
	}

	for _, childID := range mod.Items {
		childItem, ok := crate.Index[strconv.Itoa(childID)]
		if !ok {
			continue
		}

		switch rustdoc.InnerKind(childItem.Inner) {
		case "module":
			walkModuleReexports(childID, crate, crateName, reexports)
			continue
		case "use":
		default:
			continue
		}

		useData := rustdoc.UnwrapInner(childItem.Inner, "use")
		if useData == nil {
			continue
		}
		var use rustdoc.Use
		if err := json.Unmarshal(useData, &use); err != nil || use.ID == nil {
			continue
		}

		targetSummary, ok := crate.Paths[strconv.Itoa(*use.ID)]
		if !ok {
			continue
		}

		sourcePath := strings.Join(targetSummary.Path, "::")
		sourceCrate := crateName
		if targetSummary.CrateID != 0 {
			sourceCrate = crate.ExternalCrateName(targetSummary.CrateID)
			if sourceCrate == "" || InternalCrate(sourceCrate) {
				continue
			}
		}

		if use.IsGlob {
			if modulePath == sourcePath && sourceCrate == crateName {
				continue // glob from self, nothing to remap
			}
			*reexports = append(*reexports, Reexport{
				LocalPrefix:  modulePath,
				SourceCrate:  sourceCrate,
				SourcePrefix: sourcePath,
			})
			continue
		}

		localPath := modulePath + "::" + use.Name
		if localPath == sourcePath && sourceCrate == crateName {
			continue // not a real re-export
		}
		*reexports = append(*reexports, Reexport{
			LocalPrefix:  localPath,
			SourceCrate:  sourceCrate,
			SourcePrefix: sourcePath,
		})
	}
}

// ResolveReexport rewrites a queried path through the alias table,
// returning the defining crate and path when the query names an alias.
func (idx *Index) ResolveReexport(pathKey string) (crate, path string, ok bool) {
	for _, re := range idx.reexports {
		if pathKey == re.LocalPrefix {
			return re.SourceCrate, re.SourcePrefix, true
		}
		if strings.HasPrefix(pathKey, re.LocalPrefix+"::") {
			suffix := strings.TrimPrefix(pathKey, re.LocalPrefix)
			return re.SourceCrate, re.SourcePrefix + suffix, true
		}
	}
	return "", "", false
}
