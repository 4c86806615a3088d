package walker

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/phobologic/codemap/internal/codemodel"
)

// BuildTree folds a flat Result into a hierarchical node tree rooted at ".".
// At every level, directories sort before files, then both sort by name —
// this is a pure transformation over already-sorted, already-validated
// input, so it never fails.
func BuildTree(res Result) *codemodel.TreeNode {
	root := &codemodel.TreeNode{Path: ".", Name: ".", IsDir: true}
	dirNodes := map[string]*codemodel.TreeNode{".": root}

	for _, d := range res.Directories {
		if d.Path == "." {
			continue
		}
		ensureDir(root, dirNodes, d.Path)
	}

	for _, f := range res.Files {
		parent := ensureDir(root, dirNodes, filepath.ToSlash(filepath.Dir(f.Path)))
		parent.Children = append(parent.Children, &codemodel.TreeNode{Path: f.Path, Name: f.Name})
	}

	sortTree(root)
	return root
}

func ensureDir(root *codemodel.TreeNode, dirNodes map[string]*codemodel.TreeNode, path string) *codemodel.TreeNode {
	if path == "" || path == "." {
		return root
	}
	if node, ok := dirNodes[path]; ok {
		return node
	}

	parentPath := filepath.ToSlash(filepath.Dir(path))
	parent := ensureDir(root, dirNodes, parentPath)

	node := &codemodel.TreeNode{Path: path, Name: lastSegment(path), IsDir: true}
	dirNodes[path] = node
	parent.Children = append(parent.Children, node)
	return node
}

func lastSegment(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func sortTree(node *codemodel.TreeNode) {
	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, child := range node.Children {
		if child.IsDir {
			sortTree(child)
		}
	}
}
