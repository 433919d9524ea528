package database

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/tieubaoca/finsight-be/types"
)

// AzureBlobStorage stores uploads in one container of an Azure storage account.
type AzureBlobStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureBlobStorage connects with a connection string. An empty container
// name selects the first container of the account.
func NewAzureBlobStorage(ctx context.Context, connectionString, container string) (*AzureBlobStorage, error) {
	if connectionString == "" {
		return nil, errors.New("azure storage connection string is empty")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	if container == "" {
		container, err = firstContainer(ctx, client)
		if err != nil {
			return nil, err
		}
	}
	return &AzureBlobStorage{client: client, container: container}, nil
}

func firstContainer(ctx context.Context, client *azblob.Client) (string, error) {
	pager := client.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list containers: %w", err)
		}
		for _, c := range page.ContainerItems {
			if c.Name != nil {
				return *c.Name, nil
			}
		}
	}
	return "", errors.New("no containers found in the storage account")
}

func (s *AzureBlobStorage) Container() string {
	return s.container
}

func (s *AzureBlobStorage) Upload(ctx context.Context, key string, r io.Reader) error {
	if _, err := s.client.UploadStream(ctx, s.container, key, r, nil); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *AzureBlobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, fmt.Errorf("blob %s: %w", key, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return resp.Body, nil
}

func (s *AzureBlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	var keys []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}
