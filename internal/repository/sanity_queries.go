package repository

// GROQ projections used against the hosted CMS query API

const photoProjection = `{
  _id,
  _createdAt,
  title,
  "slug": slug.current,
  description,
  price,
  "imageUrl": image.asset->url,
  "collections": collections[]->{ _id, title, "slug": slug.current },
  dateTaken,
  cameraSettings,
  displayOrder
}`

const (
	queryAllPhotos = `*[_type == "photo"] ` + photoProjection +
		` | order(displayOrder asc, _createdAt desc)`

	queryPhotoBySlug = `*[_type == "photo" && slug.current == $slug][0] ` + photoProjection

	queryPhotosByCollection = `*[_type == "photo" && $collectionId in collections[]._ref] ` + photoProjection +
		` | order(displayOrder asc, _createdAt desc)`

	queryPhotosByCategory = `*[_type == "photo" && $categoryId in categories[]._ref] ` + photoProjection +
		` | order(displayOrder asc, _createdAt desc)`

	queryCollectionPhotosAdmin = `*[_type == "photo" && references($collectionId)] {
  _id,
  _createdAt,
  title,
  "slug": slug.current,
  description,
  price,
  "imageUrl": image.asset->url,
  displayOrder
} | order(displayOrder asc, title asc)`
)

const collectionProjection = `{
  _id,
  title,
  "slug": slug.current,
  description,
  "coverImageUrl": coverImage->image.asset->url,
  "photoCount": count(*[_type == "photo" && references(^._id)]),
  displayOrder
}`

const (
	queryAllCollections = `*[_type == "collection"] ` + collectionProjection +
		` | order(displayOrder asc, title asc)`

	queryCollectionBySlug = `*[_type == "collection" && slug.current == $slug][0] ` + collectionProjection
)

const categoryProjection = `{
  _id,
  title,
  "slug": slug.current,
  description,
  "photoCount": count(*[_type == "photo" && references(^._id)])
}`

const (
	queryAllCategories = `*[_type == "category"] ` + categoryProjection + ` | order(title asc)`

	queryCategoryBySlug = `*[_type == "category" && slug.current == $slug][0] ` + categoryProjection
)
