package hyperfs

import (
	"github.com/sirupsen/logrus"
)

// hasFreeCluster reports whether reserveCluster would succeed.
// A next free cluster of 0 marks a read-only or full volume.
func (v *Volume) hasFreeCluster() bool {
	return v.header.ClustersAvailable != 0 && v.header.NextFreeCluster != 0
}

// reserveCluster hands out the next free cluster. The changed counters are
// persisted before the cluster is returned, clusters are never given back.
func (v *Volume) reserveCluster() (uint64, error) {
	if !v.hasFreeCluster() {
		return 0, newError(KindOutOfSpace, "clusters_available", v.header.ClustersAvailable)
	}

	cluster := v.header.NextFreeCluster
	if !v.isCluster(cluster) {
		return 0, newError(KindInvalidClusterInfo, "next_free_cluster", cluster)
	}

	prevNext, prevAvailable := v.header.NextFreeCluster, v.header.ClustersAvailable
	v.header.NextFreeCluster++
	v.header.ClustersAvailable--

	if err := v.writeHeader(); err != nil {
		v.header.NextFreeCluster, v.header.ClustersAvailable = prevNext, prevAvailable
		return 0, err
	}

	v.log.WithFields(logrus.Fields{
		"cluster":   cluster,
		"available": v.header.ClustersAvailable,
	}).Debug("allocated cluster")
	return cluster, nil
}
