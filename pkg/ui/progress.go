package ui

// DefaultInterval is how many items pass between progress lines
const DefaultInterval = 10

// Progress prints the stage messages of a run. It satisfies both the
// resolver's and the downloader's progress interfaces.
type Progress struct {
	console  *Console
	interval int
}

// NewProgress creates a Progress printing every interval items
func NewProgress(console *Console, interval int) *Progress {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Progress{console: console, interval: interval}
}

// ResolveStarted announces the observation lookups
func (p *Progress) ResolveStarted(observations int) {
	p.console.Println("Retrieving photo data for %d observations", observations)
}

// ObservationResolved prints a line every interval observations
func (p *Progress) ObservationResolved(done, photos int) {
	if done%p.interval == 0 {
		p.console.PrintDim("%d observations processed, %d total photo data retrieved", done, photos)
	}
}

// ResolveCompleted prints the lookup summary
func (p *Progress) ResolveCompleted(done, photos int) {
	p.console.PrintSuccess("Photo retrieval complete; %d observations processed, %d total photo data retrieved", done, photos)
}

// MetadataWritten reports the metadata file location
func (p *Progress) MetadataWritten(path string) {
	p.console.Println("Image metadata outputted to %s", path)
}

// ImagesDirectory reports whether the images directory was created or reused
func (p *Progress) ImagesDirectory(created bool) {
	if created {
		p.console.Println("Created images directory.")
		return
	}
	p.console.PrintWarning("Images directory already exists, using existing images directory")
}

// DownloadStarted announces the image downloads
func (p *Progress) DownloadStarted(total int) {
	p.console.Println("Retrieving %d images", total)
}

// ImageProcessed prints a line every interval images
func (p *Progress) ImageProcessed(done, total int) {
	if done%p.interval == 0 {
		p.console.PrintDim("Retrieved %d of %d images", done, total)
	}
}

// DownloadCompleted prints the download summary
func (p *Progress) DownloadCompleted(downloaded, total int) {
	p.console.PrintSuccess("Download complete, %d of %d images retrieved", downloaded, total)
}

// MissingInput prints the message shown when the input file is absent
func (p *Progress) MissingInput(path string) {
	p.console.Println("Could not find %s. Program is now quitting.", path)
}
