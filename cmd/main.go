package main

import (
	"fmt"
	"os"

	"github.com/aligator/hyperfs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

// main prints the header and the root directory of a HyperFS image.
func main() {
	verbose := flag.BoolP("verbose", "v", false, "log driver debug output")
	flag.Parse()

	if flag.NArg() <= 0 {
		fmt.Println("Please provide a filename.")
		os.Exit(1)
	}

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := inspect(flag.Arg(0), log); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func inspect(path string, log logrus.FieldLogger) error {
	file, err := afero.NewOsFs().Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open the image")
	}
	defer file.Close()

	volume, err := hyperfs.Open(hyperfs.NewFileStorage(file), hyperfs.WithLogger(log))
	if err != nil {
		return errors.Wrapf(err, "%v is no valid volume", path)
	}

	h := volume.Header()
	fmt.Printf("Volume '%v' (%v)\n", h.VolumeName(), h.LongName())
	fmt.Printf("  created:   %v\n", h.CreationDate)
	fmt.Printf("  size:      %v bytes, %v clusters of %v bytes\n", h.Size(), h.Clusters, h.ClusterSize)
	fmt.Printf("  available: %v clusters, next free cluster %v\n", h.ClustersAvailable, h.NextFreeCluster)
	fmt.Printf("  owner:     %v\n", h.OwnerID)
	fmt.Printf("  bootable:  %v, no read: %v, hidden: %v\n\n", h.Bootable(), h.NoRead(), h.Attribute.Hidden())

	if h.NoRead() {
		return nil
	}

	files, err := volume.ReadChain()
	if err != nil {
		return errors.Wrap(err, "could not read the root directory")
	}
	dirs, err := volume.Directories()
	if err != nil {
		return errors.Wrap(err, "could not read the root directory")
	}

	for _, d := range dirs {
		fmt.Printf("%v  %-17v  %v\n", d.FileInfo(0).Mode(), d.FileName()+"/", d.CreationDate)
	}
	for _, f := range files {
		fmt.Printf("%v  %-17v  %v  %v clusters\n", f.FileInfo(0).Mode(), f.FileName(), f.ModificationDate, f.ClusterCount)
	}
	return nil
}
