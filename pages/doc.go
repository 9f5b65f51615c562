// Package pages provides PDF page tree traversal and page access.
//
// # Page Tree
//
// PDF documents organize pages in a tree of /Pages nodes with /Page
// leaves. The [PageTree] type flattens it into document order:
//
//	catalog := pages.NewCatalog(root, resolver)
//	tree, _ := catalog.PageTree()
//	all, _ := tree.Pages()
//	page, _ := tree.GetPage(0)  // 0-indexed
//
// A kid that appears twice, which would make the walk loop, is a
// malformed-file error, and trees deeper than [MaxTreeDepth] are refused.
//
// # Page Access
//
// The [Page] type represents a single PDF page with:
//
//   - MediaBox - page dimensions
//   - CropBox - visible area, defaulting to the media box
//   - Rotate - page rotation (0, 90, 180, 270)
//   - Resources - fonts, images, etc.
//   - Contents - content streams
//   - Operations - the decoded content split by package contentstream
//
// Resources, MediaBox, CropBox and Rotate are inherited from the nearest
// ancestor that sets them.
//
// # Object Resolution
//
// The [Resolver] interface abstracts object lookup. Only shallow
// resolution is used, since pages and their /Parent refer to each other.
package pages
