package gridio

import (
	"fmt"

	"github.com/scigolib/hdf5"
)

type hdf5Container struct {
	path     string
	file     *hdf5.File
	datasets map[string]*hdf5.Dataset
}

// OpenHDF5 opens an HDF5 file and indexes its datasets by path.
func OpenHDF5(path string) (Container, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	c := &hdf5Container{
		path:     path,
		file:     f,
		datasets: make(map[string]*hdf5.Dataset),
	}
	f.Walk(func(p string, obj hdf5.Object) {
		if ds, ok := obj.(*hdf5.Dataset); ok {
			c.datasets[normalize(p)] = ds
		}
	})
	return c, nil
}

func (c *hdf5Container) read(group, name string, missing error) ([]float64, error) {
	ds, ok := c.datasets[group+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s in %s", missing, group, name, c.path)
	}
	v, err := ds.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s/%s in %s: %w", group, name, c.path, err)
	}
	return v, nil
}

func (c *hdf5Container) Info(key string) ([]float64, error) {
	return c.read("Info", key, ErrMissingKey)
}

func (c *hdf5Container) Data(name string) ([]float64, error) {
	return c.read("Data", name, ErrMissingField)
}

func (c *hdf5Container) Close() error {
	return c.file.Close()
}
