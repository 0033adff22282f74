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

// main is just a example main to play with HyperFS.
// It formats a new image, stores a file spanning two clusters and reads it back.
func main() {
	var (
		image       = flag.StringP("image", "i", "example.hfs", "path of the image to create")
		clusters    = flag.Uint64P("clusters", "c", 16, "number of clusters")
		clusterSize = flag.Uint64P("cluster-size", "s", hyperfs.ClusterMultiplier, "size of a cluster in bytes")
		inMemory    = flag.Bool("memory", false, "keep the image in memory only")
		verbose     = flag.BoolP("verbose", "v", false, "log driver debug output")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var fs afero.Fs = afero.NewOsFs()
	if *inMemory {
		fs = afero.NewMemMapFs()
	}

	if err := run(fs, *image, *clusterSize, *clusters, log); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(fs afero.Fs, image string, clusterSize, clusters uint64, log logrus.FieldLogger) error {
	storage, file, err := hyperfs.OpenImage(fs, image)
	if err != nil {
		return errors.Wrap(err, "could not open the image")
	}
	defer file.Close()

	volume, err := hyperfs.New(storage, hyperfs.WithLogger(log))
	if err != nil {
		return err
	}

	err = volume.Format(hyperfs.FormatConfig{
		ClusterSize:   clusterSize,
		Clusters:      clusters,
		Name:          "EXAMPLE",
		LongName:      "HyperFS example volume",
		Attribute:     hyperfs.VolumeAttribute(0).WithRead(hyperfs.User, true).WithRead(hyperfs.Owner, true),
		BootSignature: hyperfs.BootSignatureNotBootable,
	})
	if err != nil {
		return errors.Wrap(err, "could not format")
	}

	if err := volume.AddFile("README", "md", hyperfs.AttributeFor("r--", "rw-", false), 0); err != nil {
		return errors.Wrap(err, "could not add the file")
	}

	h, err := volume.Lock("README", "md")
	if err != nil || h == 0 {
		return errors.Errorf("could not lock the file: %v", err)
	}
	defer volume.Unlock(h)

	first := []byte("Hello World\n")
	second := []byte("This line lives in the second cluster.\n")
	if err := volume.WriteCluster(h, first, 0, 0, false); err != nil {
		return errors.Wrap(err, "could not write the first cluster")
	}
	if err := volume.WriteCluster(h, second, 0, 0, true); err != nil {
		return errors.Wrap(err, "could not write the second cluster")
	}

	content, err := volume.ReadFile(h)
	if err != nil {
		return errors.Wrap(err, "could not read the file")
	}
	info, err := volume.Stat(h)
	if err != nil {
		return errors.Wrap(err, "could not stat the file")
	}

	header := volume.Header()
	fmt.Printf("Formatted volume '%v' with %v free clusters\n\n", header.LongName(), header.ClustersAvailable)
	fmt.Printf("%v %v %v bytes\n\n", info.Mode(), info.Name(), info.Size())
	fmt.Println("Content of " + info.Name() + ":\n\n" + string(content))
	return nil
}
