package compare

import (
	"context"
	"encoding/hex"
	"io"

	"github.com/minio/blake2b-simd"
	"github.com/oneconcern/yap/pkg/model"
)

const (
	changedKey    = "changed"
	hashKey       = "hash"
	hashAlgorithm = "blake2b-256"
)

type hashComparator struct{}

func (hashComparator) Compare(ctx context.Context, current, previous Blob) (model.Tree, error) {
	currentSum, err := digest(ctx, current)
	if err != nil {
		return nil, err
	}
	previousSum, err := digest(ctx, previous)
	if err != nil {
		return nil, err
	}
	equal := currentSum == previousSum

	return model.Tree{
		changedKey: !equal,
		hashKey: model.Tree{
			"algorithm": hashAlgorithm,
			"current":   currentSum,
			"previous":  previousSum,
			"equal":     equal,
		},
	}, nil
}

func digest(ctx context.Context, b Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rdr, err := b.Open()
	if err != nil {
		return "", err
	}
	defer rdr.Close()

	hasher := blake2b.New256()
	if _, err := io.Copy(hasher, rdr); err != nil {
		return "", ErrSnapshotUnreadable.Wrap(err).WrapMessage("%q", b.Path)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
