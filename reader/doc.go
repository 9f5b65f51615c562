// Package reader loads a whole PDF document and gives access to its
// objects and pages.
//
// This package ties together the lower-level packages: the file is read
// through a stream, its objects are collected by resolver.Load, and pages
// come from package pages.
//
// # Opening PDF Files
//
// Use [Open] to open a PDF file for reading:
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Or use [NewReader] with an open file, or [New] with the bytes of a file.
// Stream data is read from the file when it is decoded, so the file has to
// stay open.
//
// # Document Information
//
//   - Version() - PDF version, from the header or the catalog /Version
//   - PageCount() - number of pages
//   - GetCatalog() - document catalog dictionary
//   - GetInfo() - document info dictionary (metadata)
//   - Trailer() - trailer dictionary
//
// # Pages and Images
//
//	page, err := r.GetPage(0)  // First page
//	images, err := r.ExtractPageImages(page)
//
// # Object Resolution
//
//   - GetObject(objNum) - load object by number
//   - ResolveReference(ref) - resolve an IndirectRef
//   - Resolve(obj) - resolve if indirect, otherwise return as-is
//   - ResolveDeep(obj) - recursively resolve all references
package reader
